package mail

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/errors"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// openTemplateBucket opens the template store. A plain directory opens a
// fileblob bucket; anything with a scheme goes through blob.OpenBucket.
func openTemplateBucket(ctx context.Context, location string) (*blob.Bucket, error) {
	if strings.Contains(location, "://") {
		bucket, err := blob.OpenBucket(ctx, location)
		if err != nil {
			return nil, domainerrors.NewConfigurationError(errors.Wrap(err, "blob.OpenBucket"), "mailer.path")
		}

		return bucket, nil
	}

	bucket, err := fileblob.OpenBucket(location, nil)
	if err != nil {
		return nil, domainerrors.NewConfigurationError(errors.Wrapf(err, "open template directory %s", location), "mailer.path")
	}

	return bucket, nil
}

// loadTemplate reads one template. The reader is closed on every path.
func loadTemplate(ctx context.Context, bucket *blob.Bucket, name string) (string, error) {
	if !validTemplateName(name) {
		return "", domainerrors.NewTemplateNotFoundError(name, errors.New("invalid template name"))
	}

	r, err := bucket.NewReader(ctx, name, nil)
	if err != nil {
		return "", domainerrors.NewTemplateNotFoundError(name, errors.Wrap(err, "bucket.NewReader"))
	}
	defer r.Close()

	contents, err := io.ReadAll(r)
	if err != nil {
		return "", domainerrors.NewTemplateNotFoundError(name, errors.Wrap(err, "read template"))
	}

	return string(contents), nil
}

func validTemplateName(name string) bool {
	if name == "" || name == "." || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return false
	}

	return path.Clean(name) == name && !strings.HasPrefix(name, "../") && name != ".."
}

// render replaces every {{key}} in body with its binding in a single pass.
// Placeholders without a binding are left as they are.
func render(body string, bindings map[string]string) string {
	if len(bindings) == 0 {
		return body
	}

	keys := make([]string, 0, len(bindings))
	for key := range bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", bindings[key])
	}

	return strings.NewReplacer(pairs...).Replace(body)
}
