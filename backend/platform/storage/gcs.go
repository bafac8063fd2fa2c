package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coursemarket/backend/utils"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	CDNDomain       string
	CredentialsFile string
	URLTTL          time.Duration
}

// GCSSigner issues V4 signed PUT URLs so browsers upload chapter videos
// straight to the bucket.
type GCSSigner struct {
	client    *gcs.Client
	bucket    string
	cdnDomain string
	ttl       time.Duration
	log       *utils.Logger
}

func NewGCSSigner(ctx context.Context, cfg GCSConfig, log *utils.Logger) (*GCSSigner, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	serviceLog := log.With("service", "GCSSigner")
	serviceLog.Info("Object storage initialized", "bucket", cfg.Bucket, "cdn_domain", cfg.CDNDomain)

	return &GCSSigner{
		client:    client,
		bucket:    cfg.Bucket,
		cdnDomain: strings.TrimRight(cfg.CDNDomain, "/"),
		ttl:       ttl,
		log:       serviceLog,
	}, nil
}

func (g *GCSSigner) SignUpload(ctx context.Context, objectKey, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	url, err := g.client.Bucket(g.bucket).SignedURL(objectKey, &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      "PUT",
		ContentType: contentType,
		Expires:     time.Now().Add(g.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign upload url for %s: %w", objectKey, err)
	}
	return url, nil
}

// PublicURL is where the object is served once uploaded: the CDN when one is
// configured, the bucket's public endpoint otherwise.
func (g *GCSSigner) PublicURL(objectKey string) string {
	if g.cdnDomain != "" {
		domain := g.cdnDomain
		if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
			domain = "https://" + domain
		}
		return domain + "/" + objectKey
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectKey)
}

func (g *GCSSigner) Close() error {
	return g.client.Close()
}
