package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/tooplick/qqmusic-web/internal/qqmusic"
	bolt "go.etcd.io/bbolt"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// ErrNoCredential is returned by Store.Load when nothing has been saved yet.
var ErrNoCredential = errors.New("credential: no stored credential")

// Store persists a single credential as one whole object.
//
// Save replaces the previous value entirely; there are no partial updates.
type Store interface {
	Load(ctx context.Context) (*qqmusic.Credential, error)
	Save(ctx context.Context, cred *qqmusic.Credential) error
	Close() error
}

// Backend names accepted by OpenStore.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
	BackendBlob = "blob"
)

// StoreConfig selects and configures a Store backend.
type StoreConfig struct {
	// Backend is one of "file", "bolt" or "blob". Empty means "file".
	Backend string

	// File is the credential file (file backend) or database path (bolt).
	File string

	// BucketURL is a gocloud bucket URL for the blob backend, for example
	// "mem://" or "s3://bucket?region=us-east-1".
	BucketURL string

	// Key is the object key inside BucketURL. Default: "credential.json".
	Key string
}

// OpenStore opens the Store described by cfg.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.File == "" {
			return nil, errors.New("credential: file backend needs a path")
		}
		return OpenFileStore(cfg.File)
	case BackendBolt:
		if cfg.File == "" {
			return nil, errors.New("credential: bolt backend needs a path")
		}
		return OpenBoltStore(cfg.File)
	case BackendBlob:
		if cfg.BucketURL == "" {
			return nil, errors.New("credential: blob backend needs a bucket url")
		}
		key := cfg.Key
		if key == "" {
			key = "credential.json"
		}
		bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
		if err != nil {
			return nil, fmt.Errorf("open bucket: %w", err)
		}
		return NewBlobStore(bucket, key), nil
	default:
		return nil, fmt.Errorf("credential: unknown store backend %q", cfg.Backend)
	}
}

// BlobStore keeps the credential as a JSON object in a gocloud bucket.
type BlobStore struct {
	bucket *blob.Bucket
	key    string
}

// NewBlobStore stores the credential under key in bucket. The store owns the
// bucket and closes it in Close.
func NewBlobStore(bucket *blob.Bucket, key string) *BlobStore {
	return &BlobStore{bucket: bucket, key: key}
}

// OpenFileStore stores the credential in a local file.
//
// The file's directory is opened as a fileblob bucket, so writes go through
// a temp file and a rename and a reader never sees a torn credential.
func OpenFileStore(path string) (*BlobStore, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	bucket, err := fileblob.OpenBucket(abs, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, fmt.Errorf("open credential dir: %w", err)
	}
	return NewBlobStore(bucket, name), nil
}

// Load reads the stored credential.
func (s *BlobStore) Load(ctx context.Context) (*qqmusic.Credential, error) {
	data, err := s.bucket.ReadAll(ctx, s.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("read credential: %w", err)
	}
	return decode(data)
}

// Save replaces the stored credential.
func (s *BlobStore) Save(ctx context.Context, cred *qqmusic.Credential) error {
	data, err := encode(cred)
	if err != nil {
		return err
	}
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := s.bucket.WriteAll(ctx, s.key, data, opts); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Close releases the bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

var (
	boltBucket = []byte("credential")
	boltKey    = []byte("current")
)

// BoltStore keeps the credential in a bbolt database.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Load reads the stored credential.
func (s *BoltStore) Load(_ context.Context) (*qqmusic.Credential, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(boltKey); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	if data == nil {
		return nil, ErrNoCredential
	}
	return decode(data)
}

// Save replaces the stored credential in a single transaction.
func (s *BoltStore) Save(_ context.Context, cred *qqmusic.Credential) error {
	data, err := encode(cred)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return b.Put(boltKey, data)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func encode(cred *qqmusic.Credential) ([]byte, error) {
	if cred == nil {
		return nil, errors.New("credential: cannot save nil credential")
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*qqmusic.Credential, error) {
	var cred qqmusic.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}
