package filestore

import (
	"fmt"
)

// Config selects and configures a file store.
type Config struct {
	// Type is the kind of store: "local", "s3" or "none".
	Type string
	// Local configures storing files in the local file system.
	Local LocalConfig
	// S3 configures storing files in an S3 bucket.
	S3 S3Config
}

type LocalConfig struct {
	// BasePath is the directory files are stored under. It must be absolute.
	BasePath string
}

type S3Config struct {
	BucketName string

	// The following are normally taken from the environment. Set them only
	// to override it.
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// MakeFilestore creates the store selected by cfg. The "none" type gives a
// nil store.
func MakeFilestore(cfg Config) (Interface, error) {
	switch cfg.Type {
	case "local":
		return NewLocal(cfg.Local.BasePath)
	case "s3":
		return NewS3(cfg.S3.BucketName,
			WithEndpoint(cfg.S3.Endpoint),
			WithRegion(cfg.S3.Region),
			WithKeys(cfg.S3.AccessKey, cfg.S3.SecretKey),
		)
	case "", "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported file storage type: %s", cfg.Type)
}
