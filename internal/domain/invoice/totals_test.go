package invoice

import "testing"

func TestCalculateTotalsWithVAT(t *testing.T) {
	items := []ItemInput{
		{Description: "Consultation fee", Quantity: 1, UnitPrice: 600},
		{Description: "CBC", Quantity: 2, UnitPrice: 200},
	}

	got := CalculateTotals(items, 12, 20, false)

	if got.Subtotal != 1000.00 {
		t.Errorf("Subtotal = %v, want 1000.00", got.Subtotal)
	}
	if got.DiscountAmount != 0 {
		t.Errorf("DiscountAmount = %v, want 0", got.DiscountAmount)
	}
	if got.VATAmount != 120.00 {
		t.Errorf("VATAmount = %v, want 120.00", got.VATAmount)
	}
	if got.Total != 1120.00 {
		t.Errorf("Total = %v, want 1120.00", got.Total)
	}
}

func TestCalculateTotalsWithDiscountSuppressesVAT(t *testing.T) {
	items := []ItemInput{
		{Description: "Consultation fee", Quantity: 1, UnitPrice: 1000},
	}

	got := CalculateTotals(items, 12, 20, true)

	if got.DiscountAmount != 200.00 {
		t.Errorf("DiscountAmount = %v, want 200.00", got.DiscountAmount)
	}
	if got.SubtotalAfterDiscount != 800.00 {
		t.Errorf("SubtotalAfterDiscount = %v, want 800.00", got.SubtotalAfterDiscount)
	}
	if got.VATAmount != 0 {
		t.Errorf("VATAmount = %v, want 0 when discounted", got.VATAmount)
	}
	if got.Total != 800.00 {
		t.Errorf("Total = %v, want 800.00", got.Total)
	}
}

func TestCalculateTotalsRoundsEachStage(t *testing.T) {
	items := []ItemInput{
		{Description: "Urinalysis", Quantity: 3, UnitPrice: 33.337},
	}

	got := CalculateTotals(items, 12, 20, false)

	if got.Subtotal != 100.01 {
		t.Errorf("Subtotal = %v, want 100.01", got.Subtotal)
	}
	if got.VATAmount != 12.00 {
		t.Errorf("VATAmount = %v, want 12.00", got.VATAmount)
	}
	if got.Total != 112.01 {
		t.Errorf("Total = %v, want 112.01", got.Total)
	}
}

func TestCalculateTotalsEmptyItems(t *testing.T) {
	got := CalculateTotals(nil, 12, 20, false)
	if got.Subtotal != 0 || got.Total != 0 {
		t.Errorf("empty items: got %+v, want all zero", got)
	}
}

func TestBalanceFloorsAtZero(t *testing.T) {
	if b := Balance(100, 150); b != 0 {
		t.Errorf("Balance(100, 150) = %v, want 0", b)
	}
	if b := Balance(100, 40); b != 60.00 {
		t.Errorf("Balance(100, 40) = %v, want 60.00", b)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		hasItems bool
		balance  float64
		paid     float64
		want     Status
	}{
		{"no items", false, 0, 0, StatusUnpaid},
		{"nothing paid", true, 100, 0, StatusUnpaid},
		{"partial", true, 60, 40, StatusPartiallyPaid},
		{"settled", true, 0, 100, StatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.hasItems, tt.balance, tt.paid); got != tt.want {
				t.Errorf("StatusFor(%v, %v, %v) = %v, want %v", tt.hasItems, tt.balance, tt.paid, got, tt.want)
			}
		})
	}
}

func TestReconcileReportsPaidTransitionOnce(t *testing.T) {
	inv := &Invoice{
		Status: StatusPartiallyPaid,
		Total:  100,
		Items:  []InvoiceItem{{Description: "Consultation fee", Quantity: 1, UnitPrice: 100}},
		Payments: []Payment{
			{Amount: 40},
			{Amount: 60},
		},
	}

	if !inv.Reconcile() {
		t.Fatal("first Reconcile should report the transition into paid")
	}
	if inv.Status != StatusPaid {
		t.Fatalf("Status = %v, want paid", inv.Status)
	}

	// Reconcile is idempotent: re-running must not report the transition again.
	if inv.Reconcile() {
		t.Error("second Reconcile reported becamePaid again")
	}
}

func TestReconcileReopensAfterPaymentRemoval(t *testing.T) {
	inv := &Invoice{
		Status:   StatusPaid,
		Total:    100,
		Items:    []InvoiceItem{{Description: "Consultation fee", Quantity: 1, UnitPrice: 100}},
		Payments: []Payment{{Amount: 40}},
	}

	if inv.Reconcile() {
		t.Error("dropping below the total must not report becamePaid")
	}
	if inv.Status != StatusPartiallyPaid {
		t.Errorf("Status = %v, want partially_paid", inv.Status)
	}
}
