package repository

import (
	"context"
	"errors"
	"testing"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/observer"
	"ct-scan-inspector/internal/storage"
	"ct-scan-inspector/pkg/validation"
)

type stubFetcher struct {
	img   *storage.Image
	err   error
	calls []string
}

func (s *stubFetcher) FetchImage(ctx context.Context, imageURL string) (*storage.Image, error) {
	s.calls = append(s.calls, imageURL)
	return s.img, s.err
}

type eventRecorder struct {
	events []observer.AnalysisEvent
}

func (e *eventRecorder) Subscribe(observer.Observer)   {}
func (e *eventRecorder) Unsubscribe(observer.Observer) {}
func (e *eventRecorder) NotifyObservers(ctx context.Context, event observer.AnalysisEvent) {
	e.events = append(e.events, event)
}

func TestResolveImage_InlineDataURI(t *testing.T) {
	fetcher := &stubFetcher{}
	repo := NewHTTPImageRepository(fetcher, nil, validation.NewURLValidator(), nil)

	// malformed inline input is handed through for the parser to reject
	for _, input := range []string{"data:image/png;base64,AAA", "not a data uri"} {
		uri, meta, err := repo.ResolveImage(context.Background(), ImageSource{DataURI: input})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if uri != input {
			t.Errorf("Expected %q unchanged, got %q", input, uri)
		}
		if meta != nil {
			t.Errorf("Expected nil metadata for inline image")
		}
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetches, got %v", fetcher.calls)
	}
}

func TestResolveImage_SourceSelection(t *testing.T) {
	repo := NewHTTPImageRepository(&stubFetcher{}, nil, validation.NewURLValidator(), nil)

	tests := []struct {
		name   string
		source ImageSource
		cause  error
	}{
		{name: "none", source: ImageSource{}, cause: ErrNoImageSource},
		{name: "both", source: ImageSource{DataURI: "data:image/png;base64,AAA", URL: "https://example.com/a.png"}, cause: ErrAmbiguousImageSource},
		{name: "blob without credentials", source: ImageSource{URL: "https://scans.blob.core.windows.net/ct/a.png"}, cause: ErrBlobStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := repo.ResolveImage(context.Background(), tt.source)
			if !errors.Is(err, tt.cause) {
				t.Errorf("Expected %v, got %v", tt.cause, err)
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestResolveImage_RemoteURL(t *testing.T) {
	fetcher := &stubFetcher{img: &storage.Image{Data: []byte{0x01, 0x02, 0x03}, ContentType: "image/png"}}
	events := &eventRecorder{}
	repo := NewHTTPImageRepository(fetcher, nil, validation.NewURLValidator(), events)

	uri, meta, err := repo.ResolveImage(context.Background(), ImageSource{URL: "https://example.com/scan.png"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if uri != "data:image/png;base64,AQID" {
		t.Errorf("Expected encoded data URI, got %q", uri)
	}
	if meta == nil || meta.ContentLength != 3 || meta.ContentType != "image/png" {
		t.Errorf("Unexpected metadata %+v", meta)
	}
	if len(events.events) != 1 || events.events[0].EventType != observer.ImageFetched {
		t.Errorf("Expected one image_fetched event, got %+v", events.events)
	}
}

func TestResolveImage_BlobURLUsesBlobFetcher(t *testing.T) {
	httpFetcher := &stubFetcher{}
	blobFetcher := &stubFetcher{img: &storage.Image{Data: []byte{0x01}, ContentType: "image/jpeg"}}
	repo := NewHTTPImageRepository(httpFetcher, blobFetcher, validation.NewURLValidator(), nil)

	url := "https://scans.blob.core.windows.net/ct/a.jpg"
	if _, _, err := repo.ResolveImage(context.Background(), ImageSource{URL: url}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(blobFetcher.calls) != 1 || len(httpFetcher.calls) != 0 {
		t.Errorf("Expected blob fetcher to be used, http=%v blob=%v", httpFetcher.calls, blobFetcher.calls)
	}
}

func TestResolveImage_FetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("client error: status code 404")}
	events := &eventRecorder{}
	repo := NewHTTPImageRepository(fetcher, nil, validation.NewURLValidator(), events)

	_, _, err := repo.ResolveImage(context.Background(), ImageSource{URL: "https://example.com/missing.png"})
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
	if len(events.events) != 1 || events.events[0].EventType != observer.ImageFetchFailed {
		t.Errorf("Expected one image_fetch_failed event, got %+v", events.events)
	}
}

func TestResolveImage_InvalidURL(t *testing.T) {
	fetcher := &stubFetcher{}
	repo := NewHTTPImageRepository(fetcher, nil, validation.NewURLValidator(), nil)

	_, _, err := repo.ResolveImage(context.Background(), ImageSource{URL: "ftp://example.com/a.png"})
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetch for invalid URL")
	}
}
