package identity

import (
	"context"
	"fmt"
	"log"
	"os"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
)

// FirebaseProvider issues anonymous identities through the Firebase Admin
// SDK by provisioning a user record with no credentials attached, the
// server-side analogue of the client SDK's anonymous sign-in.
type FirebaseProvider struct {
	client *auth.Client
	logger *log.Logger
}

// NewFirebaseProvider wraps an initialized Firebase Auth client.
func NewFirebaseProvider(client *auth.Client, logger *log.Logger) *FirebaseProvider {
	if logger == nil {
		logger = log.New(os.Stderr, "[identity] ", log.LstdFlags)
	}
	return &FirebaseProvider{client: client, logger: logger}
}

// IssueAnonymous implements Provider.
func (p *FirebaseProvider) IssueAnonymous(ctx context.Context) (string, error) {
	user, err := p.client.CreateUser(ctx, &auth.UserToCreate{})
	if err != nil {
		if errorutils.IsPermissionDenied(err) || errorutils.IsFailedPrecondition(err) {
			return "", fmt.Errorf("%w: %v", ErrIssuanceDisabled, err)
		}
		return "", fmt.Errorf("identity service error: %w", err)
	}
	p.logger.Printf("Provisioned anonymous user %s", user.UID)
	return user.UID, nil
}
