package storage

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
)

const firestoreCollection = "runtime_kv"

// firestoreDoc is the document shape each key maps to; Firestore wants a
// typed payload rather than raw bytes.
type firestoreDoc struct {
	Value []byte `firestore:"value"`
}

// FirestoreKV is a KV backed by a Firestore collection, grounded on the
// teacher's pkg/firestore/client.go initialization sequence (firebase.App
// then app.Firestore) and document-by-path access pattern, narrowed here
// to the flat key/value shape SnapshotStore needs rather than the
// teacher's nested audit-trail paths.
type FirestoreKV struct {
	client *gcpfirestore.Client
}

// OpenFirestoreKV initializes a Firebase app for projectID and returns a
// FirestoreKV backed by it. Credentials are resolved the way the Firebase
// Admin SDK always does: GOOGLE_APPLICATION_CREDENTIALS or the ambient
// environment's application default credentials.
func OpenFirestoreKV(ctx context.Context, projectID string) (*FirestoreKV, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, xStorage("firestore.init", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, xStorage("firestore.init", err)
	}
	return &FirestoreKV{client: client}, nil
}

// Close releases the Firestore client.
func (f *FirestoreKV) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

func (f *FirestoreKV) docRef(key []byte) *gcpfirestore.DocumentRef {
	return f.client.Collection(firestoreCollection).Doc(keyToDocID(key))
}

// Get returns the value stored under key, or a nil slice if no document
// exists for it.
func (f *FirestoreKV) Get(key []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := f.docRef(key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, xStorage("firestore.get", err)
	}
	var doc firestoreDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, xStorage("firestore.get", err)
	}
	return doc.Value, nil
}

// Set upserts value under key.
func (f *FirestoreKV) Set(key, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := f.docRef(key).Set(ctx, firestoreDoc{Value: value})
	if err != nil {
		return xStorage("firestore.set", err)
	}
	return nil
}

// isNotFound reports whether err is Firestore's not-found status for a
// missing document, matching the substring check the teacher's own client
// uses for gRPC status strings it doesn't import a status package for.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NotFound")
}

// keyToDocID hex-encodes key into a valid Firestore document id: raw keys
// may contain the null bytes a big-endian height suffix produces, which
// Firestore's path rules don't allow.
func keyToDocID(key []byte) string {
	return hex.EncodeToString(key)
}
