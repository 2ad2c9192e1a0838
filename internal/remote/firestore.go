package remote

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lunarnova/nova/internal/project"
)

// usersCollection is the Firestore collection holding one document per
// session identifier.
const usersCollection = "users"

// Firestore implements Syncer against a Cloud Firestore backend.
type Firestore struct {
	client *firestore.Client
	logger *log.Logger
}

// NewFirestore wraps an initialized Firestore client.
//
// If logger is nil, a default logger writing to stderr is used.
func NewFirestore(client *firestore.Client, logger *log.Logger) *Firestore {
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &Firestore{client: client, logger: logger}
}

// Pull implements Syncer.Pull.
func (f *Firestore) Pull(ctx context.Context, identifier string) (project.Collection, error) {
	snap, err := f.client.Collection(usersCollection).Doc(identifier).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote document: %w", err)
	}

	var doc Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode remote document: %w", err)
	}

	c := doc.Projects
	if c == nil {
		c = project.Collection{}
	}
	for _, p := range c {
		if p != nil {
			p.SetDefaults()
		}
	}

	f.logger.Printf("Pulled %d project(s) for %s", len(c), identifier)
	return c, nil
}

// Push implements Syncer.Push.
//
// The write uses merge semantics at the document level so unrelated fields
// on the user document survive; the projects field itself is replaced
// wholesale and updatedAt is stamped server-side.
func (f *Firestore) Push(ctx context.Context, identifier string, c project.Collection) error {
	if c == nil {
		c = project.Collection{}
	}

	doc := f.client.Collection(usersCollection).Doc(identifier)
	_, err := doc.Set(ctx, map[string]interface{}{
		"projects":  c,
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to push remote document: %w", err)
	}

	f.logger.Printf("Pushed %d project(s) for %s", len(c), identifier)
	return nil
}
