package transcript

import (
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// WriteParquet writes the aligned words of all segments, in order, as rows of a parquet file.
func WriteParquet(filePath string, spans [][]WordSpan) error {
	var rows []WordSpan
	for _, segmentSpans := range spans {
		rows = append(rows, segmentSpans...)
	}
	if err := parquet.WriteFile(filePath, rows); err != nil {
		return errors.Wrapf(err, "failed to write %d words to %q", len(rows), filePath)
	}
	klog.V(1).Infof("wrote %d words to %q", len(rows), filePath)
	return nil
}

// ReadParquet reads the aligned words written by WriteParquet, grouped by segment.
//
// Segments without words are returned as empty slices, up to the last segment that has words.
func ReadParquet(filePath string) ([][]WordSpan, error) {
	rows, err := parquet.ReadFile[WordSpan](filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read words from %q", filePath)
	}
	var spans [][]WordSpan
	for i, row := range rows {
		if row.Segment < 0 {
			return nil, errors.Errorf("word #%d of %q has invalid segment index %d", i, filePath, row.Segment)
		}
		for len(spans) <= row.Segment {
			spans = append(spans, nil)
		}
		spans[row.Segment] = append(spans[row.Segment], row)
	}
	return spans, nil
}
