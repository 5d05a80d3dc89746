package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/facultyreview/internal/netx"
)

const maxImageSize = 5 << 20

// Avatar uploads an image through a presigned URL. The object URL is used
// as the image of reviews written later in this session.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: avatar <file>\n")
		return errUsage
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return a.report(err)
	}
	if len(data) > maxImageSize {
		return a.report(fmt.Errorf("image is larger than %d MB", maxImageSize>>20))
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return a.report(fmt.Errorf("%s is not an image (%s)", args[0], mt.String()))
	}

	up, err := a.api.ReviewImageUpload(ctx)
	if err != nil {
		return a.report(err)
	}

	if err := netx.UploadToPresignedURL(ctx, a.api.HTTPClient(), up.URL, mt.String(), data); err != nil {
		return a.report(err)
	}

	a.lastImage = objectURL(up.URL)
	a.printf("Image uploaded: %s\n", a.lastImage)
	return nil
}

// objectURL strips the signature query from a presigned URL.
func objectURL(presigned string) string {
	u, err := url.Parse(presigned)
	if err != nil {
		return presigned
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
