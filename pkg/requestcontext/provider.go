package requestcontext

import "context"

// Provider exposes request values as optional pointers for revision metadata.
// Empty values are reported as nil.
type Provider struct{}

func (Provider) UserAgent(ctx context.Context) *string     { return optional(UserAgent(ctx)) }
func (Provider) SourceAddress(ctx context.Context) *string { return optional(ClientIP(ctx)) }
func (Provider) SessionID(ctx context.Context) *string     { return optional(SessionID(ctx)) }

func (Provider) ActorID(ctx context.Context) *uint64 {
	id := ActorID(ctx)
	if id == 0 {
		return nil
	}
	return &id
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
