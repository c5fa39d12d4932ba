package web

import "context"

// Viewer is the authenticated identity attached to a request after the auth
// middleware verified the token cookie. It is never mutated after being set.
type Viewer struct {
	ID       int64
	Username string
	Role     string
}

type contextKey string

const viewerContextKey contextKey = "baseapp_viewer"

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerContextKey, v)
}

func ViewerFromContext(ctx context.Context) (*Viewer, bool) {
	v, ok := ctx.Value(viewerContextKey).(*Viewer)
	return v, ok
}
