package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	// file storage collaborator (S3-compatible endpoint, e.g. MinIO)
	UploadEndpoint  string
	UploadRegion    string
	UploadBucket    string
	UploadAccessKey string
	UploadSecretKey string
	UploadTimeout   time.Duration
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "formloom.sqlite", "path to SQLite3 DB file (default formloom.sqlite)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	flag.StringVar(&cfg.UploadEndpoint, "upload-endpoint", "", "base endpoint of the S3-compatible file storage (empty disables file uploads)")
	flag.StringVar(&cfg.UploadRegion, "upload-region", "us-east-1", "file storage region")
	flag.StringVar(&cfg.UploadBucket, "upload-bucket", "formloom-uploads", "file storage bucket")
	flag.StringVar(&cfg.UploadAccessKey, "upload-access-key", "", "file storage access key")
	flag.StringVar(&cfg.UploadSecretKey, "upload-secret-key", "", "file storage secret key")
	var uploadTimeout uint
	flag.UintVar(&uploadTimeout, "upload-timeout", 30, "per-file upload timeout in seconds (default 30)")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.UploadTimeout = time.Duration(uploadTimeout) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func (cfg Config) UploadsEnabled() bool {
	return cfg.UploadEndpoint != ""
}
