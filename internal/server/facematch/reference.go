package facematch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrReferenceUnreadable means the reference image could not be fetched.
var ErrReferenceUnreadable = errors.New("failed to read reference image")

// ReferenceSource loads the provisioned reference face for a user.
type ReferenceSource interface {
	Load(ctx context.Context, username string) ([]byte, error)
}

// usernamePlaceholder in a file path or key pattern is replaced with the
// username being verified.
const usernamePlaceholder = "{username}"

// ErrUnsafeUsername means a username cannot be used as a path or key component.
var ErrUnsafeUsername = errors.New("username is not usable as a reference name")

// checkUsername rejects names that would change the directory of the
// resolved path or key.
func checkUsername(username string) error {
	if username == "" || username == "." || username == ".." ||
		strings.ContainsAny(username, `/\`) || strings.Contains(username, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafeUsername, username)
	}
	for _, r := range username {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q", ErrUnsafeUsername, username)
		}
	}
	return nil
}

// FileReference reads a reference image from the local filesystem.
type FileReference struct {
	path string
}

func NewFileReference(path string) *FileReference {
	return &FileReference{path: path}
}

func (r *FileReference) Load(_ context.Context, username string) ([]byte, error) {
	path, err := r.resolve(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnreadable, err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnreadable, err)
	}
	return b, nil
}

// resolve substitutes username and makes sure the result stays in the
// pattern's directory.
func (r *FileReference) resolve(username string) (string, error) {
	if !strings.Contains(r.path, usernamePlaceholder) {
		return r.path, nil
	}
	if err := checkUsername(username); err != nil {
		return "", err
	}

	path := filepath.Clean(strings.ReplaceAll(r.path, usernamePlaceholder, username))
	rel, err := filepath.Rel(filepath.Dir(filepath.Clean(r.path)), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes reference directory", ErrUnsafeUsername, username)
	}
	return path, nil
}

// s3API is the part of *s3.Client we use.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
	return s3.NewFromConfig(cfg, optFns...)
}

// S3Reference reads "<username>.jpg" (or a custom key pattern) from a bucket,
// the layout the face provisioning upload uses.
type S3Reference struct {
	client     s3API
	bucket     string
	keyPattern string
	maxBytes   int64
}

func NewS3Reference(cfg aws.Config, endpoint, bucket string, maxBytes int64) *S3Reference {
	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = endpointOverride(endpoint)
		o.UsePathStyle = endpoint != ""
	})
	return &S3Reference{client: client, bucket: bucket, keyPattern: usernamePlaceholder + ".jpg", maxBytes: maxBytes}
}

func (r *S3Reference) Load(ctx context.Context, username string) ([]byte, error) {
	if err := checkUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnreadable, err)
	}
	key := strings.ReplaceAll(r.keyPattern, usernamePlaceholder, username)

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3://%s/%s: %w", ErrReferenceUnreadable, r.bucket, key, err)
	}
	defer out.Body.Close()

	var body io.Reader = out.Body
	if r.maxBytes > 0 {
		body = io.LimitReader(out.Body, r.maxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnreadable, err)
	}
	if r.maxBytes > 0 && int64(len(b)) > r.maxBytes {
		return nil, fmt.Errorf("%w: object larger than %d bytes", ErrReferenceUnreadable, r.maxBytes)
	}
	return b, nil
}
