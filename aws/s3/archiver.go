package s3

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// LogArchiver copies finished execution logs to a bucket.
type LogArchiver struct {
	api    s3iface.S3API
	bucket Bucket
}

// NewLogArchiver uses the default AWS credential chain.
func NewLogArchiver(b Bucket) (*LogArchiver, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(b.Region))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create S3 session for %v", b)
	}
	return NewLogArchiverWithAPI(b, s3.New(sess)), nil
}

func NewLogArchiverWithAPI(b Bucket, api s3iface.S3API) *LogArchiver {
	return &LogArchiver{api: api, bucket: b}
}

// Archive uploads the file at path under its base name and returns the object URL.
func (a *LogArchiver) Archive(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	key := a.bucket.Key(filepath.Base(path))
	_, err = a.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket.Name),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) {
			return "", errors.Wrapf(err, "unable to archive %v to %v (%v)", path, a.bucket, awsErr.Code())
		}
		return "", errors.Wrapf(err, "unable to archive %v to %v", path, a.bucket)
	}
	return scheme + "://" + a.bucket.Name + "/" + key, nil
}
