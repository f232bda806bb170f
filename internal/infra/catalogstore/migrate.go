package catalogstore

import (
	"fmt"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(rootBucketName))
		if err != nil {
			return fmt.Errorf("create root bucket: %w", err)
		}
		meta, err := root.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if _, err := root.CreateBucketIfNotExists([]byte(entriesBucketName)); err != nil {
			return fmt.Errorf("create entries bucket: %w", err)
		}

		current := readSchemaVersion(meta)
		switch {
		case current == 0:
			return writeSchemaVersion(meta, schemaVersion)
		case current > schemaVersion:
			return fmt.Errorf("unsupported catalog cache schema version %d", current)
		default:
			return nil
		}
	})
}

func readSchemaVersion(meta *bolt.Bucket) int {
	raw := meta.Get([]byte(schemaVersionKey))
	if raw == nil {
		return 0
	}
	version, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0
	}
	return version
}

func writeSchemaVersion(meta *bolt.Bucket, version int) error {
	return meta.Put([]byte(schemaVersionKey), []byte(strconv.Itoa(version)))
}
