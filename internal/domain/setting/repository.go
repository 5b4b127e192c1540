package setting

import "context"

type Repository interface {
	// Get returns the singleton settings row, or Defaults() when none exists.
	Get(ctx context.Context) (*Setting, error)

	// Update applies partial changes and persists the row, creating it from
	// defaults on first write.
	Update(ctx context.Context, cmd *UpdateSettingCommand) (*Setting, error)
}
