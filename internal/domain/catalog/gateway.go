package catalog

import "context"

// ProductGateway reads and writes products on the remote backend.
// token is the caller's upstream access token; empty means anonymous.
type ProductGateway interface {
	List(ctx context.Context, token string, filter Filter) ([]Product, error)
	Get(ctx context.Context, token, id string) (*Product, error)
	Create(ctx context.Context, token string, draft ProductDraft) (*Product, error)
	Update(ctx context.Context, token, id string, patch ProductPatch) (*Product, error)
	Delete(ctx context.Context, token, id string) error
}
