package blobs

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"

	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store"
	"github.com/storacha/todos/pkg/store/blobstore"
)

var log = logging.Logger("blobs")

type Server struct {
	blobs         blobstore.Blobstore
	presigner     presigner.RequestPresigner
	maxUploadSize uint64
}

func NewServer(presigner presigner.RequestPresigner, blobs blobstore.Blobstore, maxUploadSize uint64) (*Server, error) {
	if presigner == nil || blobs == nil {
		return nil, errors.New("presigner and blobstore are required")
	}
	return &Server{blobs, presigner, maxUploadSize}, nil
}

func (srv *Server) Serve(e *echo.Echo) {
	e.GET("/blob/:key", NewBlobGetHandler(srv.blobs))
	e.PUT("/blob/:key", NewBlobPutHandler(srv.presigner, srv.blobs, srv.maxUploadSize))
}

func keyParam(c echo.Context) (string, error) {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil || key == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid key")
	}
	return key, nil
}

func NewBlobGetHandler(blobs blobstore.Blobstore) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, err := keyParam(c)
		if err != nil {
			return err
		}

		obj, err := blobs.Get(c.Request().Context(), key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("not found: %s", key))
			}
			log.Errorf("reading %s: %s", key, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "read failed")
		}

		body, err := obj.Body()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("not found: %s", key))
			}
			log.Errorf("opening %s: %s", key, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "read failed")
		}
		defer body.Close()

		c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size(), 10))
		return c.Stream(http.StatusOK, echo.MIMEOctetStream, body)
	}
}

// NewBlobPutHandler accepts uploads to URLs issued by the presigner. The
// signature is verified before any data is read.
func NewBlobPutHandler(presigner presigner.RequestPresigner, blobs blobstore.Blobstore, maxUploadSize uint64) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		_, _, err := presigner.VerifyUploadURL(r.Context(), *r.URL, r.Header)
		if err != nil {
			log.Warnf("rejected upload to %s: %s", r.URL.Path, err)
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}

		key, err := keyParam(c)
		if err != nil {
			return err
		}

		if r.ContentLength < 0 {
			return echo.NewHTTPError(http.StatusLengthRequired, "missing Content-Length")
		}
		if maxUploadSize > 0 && uint64(r.ContentLength) > maxUploadSize {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("attachment larger than %d bytes", maxUploadSize))
		}

		err = blobs.Put(r.Context(), key, uint64(r.ContentLength), r.Body)
		if err != nil {
			if errors.Is(err, blobstore.ErrTooLarge) || errors.Is(err, blobstore.ErrTooSmall) {
				return echo.NewHTTPError(http.StatusBadRequest, "body does not match Content-Length")
			}
			log.Errorf("writing %s: %s", key, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "write failed")
		}

		log.Infow("stored attachment", "key", key, "size", r.ContentLength)
		return c.NoContent(http.StatusOK)
	}
}
