package cart

import "context"

// Repository stores carts by owner key.
// Get returns an empty cart, not an error, when the owner has none.
type Repository interface {
	Get(ctx context.Context, ownerKey string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, ownerKey string) error
}

// RemoteLine is one line of the backend's cart representation
type RemoteLine struct {
	ProductID string
	Quantity  int
}

// RemoteGateway mirrors a cart to the remote backend for token-bearing sessions
type RemoteGateway interface {
	Lines(ctx context.Context, token string) ([]RemoteLine, error)
	AddLine(ctx context.Context, token, productID string, quantity int) error
	RemoveLine(ctx context.Context, token, productID string) error
	ClearLines(ctx context.Context, token string) error
}
