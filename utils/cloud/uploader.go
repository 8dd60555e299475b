package cloud

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"haruki-sprite-action/config"
	harukiLogger "haruki-sprite-action/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var logger = harukiLogger.NewLogger("HarukiCloudStorageUploader", "INFO", nil)

func SetLogLevel(level string) {
	logger.SetLevel(level)
}

type Uploader interface {
	Upload(ctx context.Context, localPath string, remotePath string) error
}

// commandUploader runs an external program, replacing the "src" and "dst"
// arguments with the local and remote paths.
type commandUploader struct {
	program string
	args    []string
}

func (u *commandUploader) Upload(ctx context.Context, localPath string, remotePath string) error {
	args := make([]string, len(u.args))
	copy(args, u.args)
	for i, arg := range args {
		if arg == "src" {
			args[i] = localPath
		} else if arg == "dst" {
			args[i] = remotePath
		}
	}
	logger.Debugf("Uploading %s to %s using command: %s %s", localPath, remotePath, u.program, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, u.program, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to upload %s to %s using command: %s %s: %w",
			localPath, remotePath, u.program, strings.Join(args, " "), err)
	}
	return nil
}

type s3Uploader struct {
	client *s3.Client
	bucket string
}

func (u *s3Uploader) Upload(ctx context.Context, localPath string, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(remotePath),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", u.bucket, remotePath, err)
	}
	return nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".json":
		return "application/json"
	case ".msgpack":
		return "application/msgpack"
	default:
		return "application/octet-stream"
	}
}

func NewUploader(storage config.RemoteStorageConfig) (Uploader, error) {
	switch storage.Type {
	case "s3":
		if storage.Bucket == "" {
			return nil, fmt.Errorf("s3 storage %s has no bucket", storage.Base)
		}
		opts := s3.Options{
			Region:       storage.Region,
			UsePathStyle: storage.PathStyle,
		}
		if storage.AccessKey != "" {
			opts.Credentials = credentials.NewStaticCredentialsProvider(storage.AccessKey, storage.SecretKey, "")
		}
		if storage.Endpoint != "" {
			opts.BaseEndpoint = aws.String(storage.Endpoint)
		}
		return &s3Uploader{client: s3.New(opts), bucket: storage.Bucket}, nil
	case "command", "":
		if storage.Program == "" {
			return nil, fmt.Errorf("command storage %s has no program", storage.Base)
		}
		return &commandUploader{program: storage.Program, args: storage.Args}, nil
	default:
		return nil, fmt.Errorf("unknown remote storage type: %s", storage.Type)
	}
}

// remotePathFor keeps the layout below localRoot. S3 keys always use slashes.
func remotePathFor(storage config.RemoteStorageConfig, localRoot string, filePath string) (string, error) {
	relativePath, err := filepath.Rel(localRoot, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path for %s: %w", filePath, err)
	}
	if storage.Type == "s3" {
		return path.Join(storage.Base, filepath.ToSlash(relativePath)), nil
	}
	return filepath.Join(storage.Base, relativePath), nil
}

func UploadToStorage(
	ctx context.Context,
	storage config.RemoteStorageConfig,
	exportedList []string,
	localRoot string,
	concurrency int,
) error {
	uploader, err := NewUploader(storage)
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	semaphore := make(chan struct{}, concurrency)
	errChan := make(chan error, len(exportedList))
	var wg sync.WaitGroup
	for _, filePath := range exportedList {
		wg.Add(1)
		go func(filePath string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			remotePath, err := remotePathFor(storage, localRoot, filePath)
			if err != nil {
				errChan <- err
				return
			}
			if err := uploader.Upload(ctx, filePath, remotePath); err != nil {
				logger.Errorf("Failed to upload %s to %s", filePath, remotePath)
				errChan <- err
				return
			}
			logger.Infof("Successfully uploaded %s to %s", filePath, remotePath)
		}(filePath)
	}
	wg.Wait()
	close(errChan)
	var errors []error
	for err := range errChan {
		errors = append(errors, err)
	}
	if len(errors) > 0 {
		return fmt.Errorf("%d of %d uploads failed: %w", len(errors), len(exportedList), errors[0])
	}
	return nil
}

// UploadToAllStorages uploads to every storage in order, then removes the
// local files if asked and every upload succeeded.
func UploadToAllStorages(
	ctx context.Context,
	storages []config.RemoteStorageConfig,
	exportedList []string,
	localRoot string,
	concurrency int,
	removeLocal bool,
) error {
	if len(storages) == 0 {
		logger.Infof("No remote storages configured, skipping upload")
		return nil
	}

	for _, storage := range storages {
		logger.Infof("Uploading to remote storage: %s (type: %s)", storage.Base, storage.Type)
		if err := UploadToStorage(ctx, storage, exportedList, localRoot, concurrency); err != nil {
			return fmt.Errorf("failed to upload to storage %s: %w", storage.Base, err)
		}
		logger.Infof("Successfully uploaded all files to storage: %s", storage.Base)
	}

	if removeLocal {
		for _, filePath := range exportedList {
			if err := os.Remove(filePath); err != nil {
				logger.Warnf("Failed to delete local file %s after upload: %v", filePath, err)
			} else {
				logger.Debugf("Deleted local file %s after successful upload", filePath)
			}
		}
	}
	logger.Infof("Successfully uploaded to all configured remote storages")
	return nil
}
