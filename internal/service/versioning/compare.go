package versioning

import (
	"context"
	"fmt"
)

// CompareVersions produces a human-readable diff between two versions of the
// same artifact: author, file name, content type and size changes, plus the
// elapsed time between the two snapshots.
func (s *Service) CompareVersions(ctx context.Context, artifactID, from, to int) ([]string, error) {
	a, err := s.artifacts.FindVersion(ctx, artifactID, from)
	if err != nil {
		return nil, err
	}
	b, err := s.artifacts.FindVersion(ctx, artifactID, to)
	if err != nil {
		return nil, err
	}

	var diffs []string

	if a.Author != b.Author {
		diffs = append(diffs, fmt.Sprintf("author changed from %q to %q", a.Author, b.Author))
	}

	if a.File != nil && b.File != nil {
		if a.File.Name != b.File.Name {
			diffs = append(diffs, fmt.Sprintf("file name changed from %q to %q", a.File.Name, b.File.Name))
		}
		if a.File.ContentType != b.File.ContentType {
			diffs = append(diffs, fmt.Sprintf("content type changed from %q to %q", a.File.ContentType, b.File.ContentType))
		}
		if a.File.SizeBytes != b.File.SizeBytes {
			diffs = append(diffs, fmt.Sprintf("file size changed from %s to %s",
				FormatSize(a.File.SizeBytes), FormatSize(b.File.SizeBytes)))
		}
	} else if a.File == nil && b.File != nil {
		diffs = append(diffs, fmt.Sprintf("file %q attached", b.File.Name))
	} else if a.File != nil && b.File == nil {
		diffs = append(diffs, fmt.Sprintf("file %q removed", a.File.Name))
	}

	elapsed := b.CreatedAt.Sub(a.CreatedAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(elapsed.Hours()) / 24
	hours := int(elapsed.Hours()) % 24
	diffs = append(diffs, fmt.Sprintf("time between versions: %d days %d hours", days, hours))

	return diffs, nil
}

// FormatSize renders a byte count with binary unit suffixes and one decimal
// place, e.g. 1536 -> "1.5 KB".
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	suffixes := []string{"KB", "MB", "GB"}
	suffix := suffixes[0]
	for i := 0; i < len(suffixes); i++ {
		value /= unit
		suffix = suffixes[i]
		if value < unit || i == len(suffixes)-1 {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
