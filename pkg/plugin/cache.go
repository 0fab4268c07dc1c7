package plugin

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rillsh/rill/pkg/logutil"
)

var logger = logutil.GetLogger("[plugin] ")

// Cache persists validated manifests in a bolt database, keyed by the
// hash of the manifest file's content. A manifest whose file has not
// changed is loaded from the cache without being re-parsed or
// re-validated.
type Cache struct {
	db *bolt.DB
}

var bucketManifest = []byte("manifest")

// OpenCache opens the manifest cache at the given path, creating it if
// necessary.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: time.Second, FreelistType: bolt.FreelistMapType})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketManifest)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) get(sum []byte) (*Manifest, bool) {
	var m *Manifest
	c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketManifest).Get(sum)
		if data == nil {
			return nil
		}
		var decoded Manifest
		if json.Unmarshal(data, &decoded) == nil {
			m = &decoded
		}
		return nil
	})
	return m, m != nil
}

func (c *Cache) put(sum []byte, m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketManifest).Put(sum, data)
	})
}

// LoadDir loads all plugin manifests directly under dir. With a non-nil
// cache, unchanged manifest files skip parsing and validation. A manifest
// that fails to load is logged and skipped; one broken plugin does not
// take the rest down.
func LoadDir(dir string, cache *Cache) ([]*Manifest, error) {
	files, err := ManifestFiles(dir)
	if err != nil {
		return nil, err
	}
	var manifests []*Manifest
	for _, file := range files {
		m, err := loadCached(file, cache)
		if err != nil {
			logger.Println("skipping manifest", file, "error:", err)
			continue
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func loadCached(path string, cache *Cache) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	if cache != nil {
		if m, ok := cache.get(sum[:]); ok {
			m.Dir = filepath.Dir(path)
			return m, nil
		}
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	m.Dir = filepath.Dir(path)
	if cache != nil {
		if err := cache.put(sum[:], m); err != nil {
			logger.Println("caching manifest", path, "error:", err)
		}
	}
	return m, nil
}
