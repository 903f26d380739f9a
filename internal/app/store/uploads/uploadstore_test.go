package uploadstore_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	uploadstore "github.com/dalemusser/fwsm/internal/app/store/uploads"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/testutil"
)

var (
	pngData  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	jpegData = append([]byte("\xff\xd8\xff\xe0"), make([]byte, 64)...)
	gifData  = append([]byte("GIF89a"), make([]byte, 64)...)
)

func TestCheck(t *testing.T) {
	png := apiclient.File{Name: "a.png", Data: pngData}
	jpg := apiclient.File{Name: "b.jpg", Data: jpegData}
	gif := apiclient.File{Name: "c.gif", Data: gifData}

	cases := []struct {
		name    string
		files   []apiclient.File
		lim     uploadstore.Limits
		wantErr bool
	}{
		{"one png logo", []apiclient.File{png}, uploadstore.LogoLimits(uploadstore.DefaultMaxBytes), false},
		{"two logos", []apiclient.File{png, jpg}, uploadstore.LogoLimits(uploadstore.DefaultMaxBytes), true},
		{"gif rejected", []apiclient.File{gif}, uploadstore.LogoLimits(uploadstore.DefaultMaxBytes), true},
		{"too large", []apiclient.File{png}, uploadstore.Limits{MaxFiles: 1, MaxBytes: 16}, true},
		{"gallery fits", []apiclient.File{png, jpg}, uploadstore.GalleryLimits(uploadstore.DefaultMaxBytes, 5, 3), false},
		{"gallery full", []apiclient.File{png, jpg}, uploadstore.GalleryLimits(uploadstore.DefaultMaxBytes, 5, 4), true},
		{"gallery already full", []apiclient.File{png}, uploadstore.GalleryLimits(uploadstore.DefaultMaxBytes, 5, 5), true},
		{"empty file", []apiclient.File{{Name: "x.png"}}, uploadstore.LogoLimits(uploadstore.DefaultMaxBytes), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := uploadstore.Check(tc.files, tc.lim)
			if (err != nil) != tc.wantErr {
				t.Errorf("Check: err=%v, wantErr=%v", err, tc.wantErr)
			}
			var ce *uploadstore.CheckError
			if err != nil && !errors.As(err, &ce) {
				t.Errorf("expected CheckError, got %T", err)
			}
		})
	}
}

func TestCheck_SetsSniffedContentType(t *testing.T) {
	files := []apiclient.File{{Name: "photo", ContentType: "application/octet-stream", Data: jpegData}}
	if err := uploadstore.Check(files, uploadstore.LogoLimits(0)); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if files[0].ContentType != "image/jpeg" {
		t.Errorf("expected sniffed type, got %q", files[0].ContentType)
	}
}

func TestCheck_NoFiles(t *testing.T) {
	if err := uploadstore.Check(nil, uploadstore.LogoLimits(0)); !errors.Is(err, uploadstore.ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

func TestStore_UploadImages(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle("POST", "/upload", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart body, got %q", r.Header.Get("Content-Type"))
		}
		testutil.WriteJSON(w, http.StatusOK,
			`[{"id": 41, "name": "a.png", "url": "/uploads/a.png", "mime": "image/png", "formats": null},
			  {"id": 42, "name": "b.jpg", "url": "/uploads/b.jpg", "mime": "image/jpeg", "formats": null}]`)
	})
	store := uploadstore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	imgs, err := store.UploadImages(ctx, apiclient.StaticToken("tok"), []apiclient.File{
		{Name: "a.png", ContentType: "image/png", Data: pngData},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: jpegData},
	})
	if err != nil {
		t.Fatalf("UploadImages failed: %v", err)
	}
	if ids := uploadstore.IDs(imgs); len(ids) != 2 || ids[0] != 41 || ids[1] != 42 {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestStore_UploadImages_EmptyMakesNoCall(t *testing.T) {
	b := testutil.NewBackend(t)
	store := uploadstore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.UploadImages(ctx, apiclient.StaticToken("tok"), nil); !errors.Is(err, uploadstore.ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
	if n := len(b.Requests()); n != 0 {
		t.Errorf("expected no calls, got %d", n)
	}
}

func TestStore_UploadImages_EmptyResponseIsDecodeFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("POST", "/upload", http.StatusOK, `[]`)
	store := uploadstore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.UploadImages(ctx, apiclient.StaticToken("tok"), []apiclient.File{{Name: "a.png", Data: pngData}})
	if apiclient.Classify(err) != apiclient.OutcomeDecode {
		t.Errorf("expected decode failure, got %v", err)
	}
}
