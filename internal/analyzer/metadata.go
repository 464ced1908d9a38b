package analyzer

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/imagescan/internal/model"

	// Register decoders for every accepted upload format so
	// image.DecodeConfig can identify them.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// noExifMessage explains an empty tag set. Social media platforms strip
// metadata on upload, so an empty set is common and not itself suspicious.
const noExifMessage = "no EXIF metadata found; images shared through social media or messaging apps usually have their metadata stripped"

// MetadataAnalyzer extracts EXIF metadata and basic file information.
//
// EXIF data can contain GPS coordinates, camera serial numbers, software
// information, and timestamps. The analyzer reports every tag it can parse;
// interpretation is left to the reader.
type MetadataAnalyzer struct{}

// NewMetadataAnalyzer creates a MetadataAnalyzer.
func NewMetadataAnalyzer() *MetadataAnalyzer {
	return &MetadataAnalyzer{}
}

// Name returns the analyzer name.
func (a *MetadataAnalyzer) Name() string {
	return "metadata"
}

// Kind returns the report slot this analyzer fills.
func (a *MetadataAnalyzer) Kind() model.ResultKind {
	return model.KindMetadata
}

// Analyze extracts EXIF tags and file information from the upload.
func (a *MetadataAnalyzer) Analyze(_ context.Context, input *Input) (*model.AnalyzerResult, error) {
	info, err := fileInfo(input)
	if err != nil {
		return nil, err
	}

	meta := &model.Metadata{
		Tags:     make(map[string]string),
		FileInfo: info,
	}

	rawExif, err := exif.SearchAndExtractExif(input.Data)
	if err != nil || rawExif == nil {
		meta.Message = noExifMessage
		return model.NewMetadataResult(meta), nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		// The EXIF segment exists but is malformed; report what we know.
		meta.Message = noExifMessage
		return model.NewMetadataResult(meta), nil
	}

	for _, entry := range entries {
		if entry.TagName == "" || entry.Formatted == "" {
			continue
		}
		// Thumbnail offsets are internal bookkeeping, not metadata.
		if strings.HasPrefix(entry.TagName, "JPEGInterchange") {
			continue
		}
		meta.Tags[entry.TagName] = entry.Formatted
	}

	if len(meta.Tags) == 0 {
		meta.Message = noExifMessage
	}
	return model.NewMetadataResult(meta), nil
}

// fileInfo decodes the image header and digests the upload.
func fileInfo(input *Input) (model.FileInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(input.Data))
	if err != nil {
		return model.FileInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedInput, err)
	}

	digest := blake2b.Sum256(input.Data)
	return model.FileInfo{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: int64(len(input.Data)),
		Digest:    hex.EncodeToString(digest[:]),
	}, nil
}

// Ensure MetadataAnalyzer implements Analyzer.
var _ Analyzer = (*MetadataAnalyzer)(nil)
