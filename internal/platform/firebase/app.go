package firebase

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Config holds Firebase configuration.
type Config struct {
	ProjectID                    string
	GoogleApplicationCredentials string // Path to service account JSON (optional)
	StorageBucket                string // Photo bucket; empty disables Storage
	Firestore                    bool   // Open a Firestore client (profile backend "firestore")
}

// Clients holds initialized Firebase clients. Firestore and Bucket are nil
// when not requested in Config.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Bucket    *gcs.BucketHandle
	bucket    string
}

// InitializeClients sets up Firebase and returns clients directly.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	var opts []option.ClientOption
	if cfg.GoogleApplicationCredentials != "" {
		creds, err := os.ReadFile(cfg.GoogleApplicationCredentials)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, err
	}

	clients := &Clients{bucket: cfg.StorageBucket}

	if clients.Auth, err = fbApp.Auth(ctx); err != nil {
		return nil, err
	}

	if cfg.Firestore {
		if clients.Firestore, err = fbApp.Firestore(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.StorageBucket != "" {
		sc, err := fbApp.Storage(ctx)
		if err != nil {
			return nil, errors.Join(err, clients.Close())
		}
		if clients.Bucket, err = sc.DefaultBucket(); err != nil {
			return nil, errors.Join(err, clients.Close())
		}
	}

	return clients, nil
}

// BucketName returns the configured Storage bucket name.
func (c *Clients) BucketName() string {
	return c.bucket
}

// Close closes the Firestore client.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
