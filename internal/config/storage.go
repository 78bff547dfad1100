package config

import (
	"fmt"
	"strings"
)

// StorageDriver selects the blob store backend.
type StorageDriver uint8

const (
	StorageDriverLocal StorageDriver = iota
	StorageDriverS3
)

func (d StorageDriver) String() string {
	return []string{"local", "s3"}[d]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *StorageDriver) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "local":
		*d = StorageDriverLocal
	case "s3":
		*d = StorageDriverS3
	default:
		return fmt.Errorf("unknown storage driver: %s", text)
	}
	return nil
}

func (d StorageDriver) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Storage struct {
	Driver         StorageDriver `env:"STORAGE_DRIVER" envDefault:"local"`
	MaxUploadBytes int64         `env:"STORAGE_MAX_UPLOAD_BYTES" envDefault:"5242880"`

	LocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./data/uploads"`

	S3Endpoint     string `env:"STORAGE_S3_ENDPOINT"`
	S3Region       string `env:"STORAGE_S3_REGION" envDefault:"us-east-1"`
	S3Bucket       string `env:"STORAGE_S3_BUCKET"`
	S3AccessKey    string `env:"STORAGE_S3_ACCESS_KEY"`
	S3SecretKey    string `env:"STORAGE_S3_SECRET_KEY"`
	S3UsePathStyle bool   `env:"STORAGE_S3_USE_PATH_STYLE" envDefault:"true"`
	S3CreateBucket bool   `env:"STORAGE_S3_CREATE_BUCKET" envDefault:"false"`
}
