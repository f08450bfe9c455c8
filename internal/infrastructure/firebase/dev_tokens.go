package firebase

import (
	"context"
)

// GenerateDevToken mints a custom token for local testing. Only reachable
// through the dev router, which is disabled in production.
func (f *FirebaseAuthClient) GenerateDevToken(ctx context.Context, uid string) (string, error) {
	return f.client.CustomToken(ctx, uid)
}
