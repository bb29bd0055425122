package rolling

// Snapshot derivation. Everything here is pure computation over copied
// window contents; cost is proportional to window capacity, never to the
// total number of records ever seen.

// Band classifies mean sentiment into coarse zones for display.
type Band string

const (
	BandPositive Band = "positive"
	BandNeutral  Band = "neutral"
	BandNegative Band = "negative"
)

// histogramBuckets is the fixed bucket count for the length histogram.
const histogramBuckets = 10

// smaSpan is the span of the simple moving average over the sentiment window.
const smaSpan = 5

// Snapshot is the self-contained analytics view handed to renderers.
type Snapshot struct {
	// TotalCount is the cumulative number of records ever inserted.
	TotalCount int64

	// TimeSeries is the (timestamp, cumulative count) window, oldest first.
	TimeSeries []TimePoint

	// Throughput is records per second across the time-series window span,
	// or 0 when the span is empty or instantaneous.
	Throughput float64

	// Authors holds running counts, most recently updated first.
	Authors []AuthorCount

	// Sentiments is the raw sentiment window, oldest first, unclamped.
	Sentiments []SentimentPoint

	// SentimentMean is the mean over the sentiment window.
	SentimentMean float64

	// SentimentTrend is the simple moving average series over the
	// sentiment window (span smaSpan), oldest first.
	SentimentTrend []float64

	// SentimentBand classifies SentimentMean by the configured thresholds.
	SentimentBand Band

	// Lengths holds the message length window plus descriptive statistics.
	Lengths LengthStats
}

// LengthStats describes the message length window.
type LengthStats struct {
	Values    []int
	Mean      float64
	Min       int
	Max       int
	Histogram []HistogramBucket
}

// HistogramBucket is one bin of the length histogram; the range is
// [From, To) except the last bucket, which is inclusive of To.
type HistogramBucket struct {
	From  int
	To    int
	Count int
}

func buildSnapshot(cfg Config, total int64, timeSeries []TimePoint,
	sentiments []SentimentPoint, lengths []int, authors []AuthorCount) Snapshot {

	snap := Snapshot{
		TotalCount: total,
		TimeSeries: timeSeries,
		Throughput: throughput(timeSeries),
		Authors:    authors,
		Sentiments: sentiments,
		Lengths:    lengthStats(lengths),
	}
	snap.SentimentMean = sentimentMean(sentiments)
	snap.SentimentTrend = movingAverage(sentiments, smaSpan)
	snap.SentimentBand = band(cfg, snap.SentimentMean)
	return snap
}

func throughput(points []TimePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	first, last := points[0], points[len(points)-1]
	span := last.Timestamp.Sub(first.Timestamp).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(last.Cumulative-first.Cumulative) / span
}

func sentimentMean(points []SentimentPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum / float64(len(points))
}

// movingAverage computes the simple moving average with the given span.
// The first span-1 entries average what is available so the series has the
// same length as the input.
func movingAverage(points []SentimentPoint, span int) []float64 {
	if len(points) == 0 {
		return nil
	}
	out := make([]float64, len(points))
	var sum float64
	for i, p := range points {
		sum += p.Value
		if i >= span {
			sum -= points[i-span].Value
			out[i] = sum / float64(span)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// band classifies mean sentiment against the configured thresholds.
// Works on any value; sentiment outside [-1, 1] is legal input.
func band(cfg Config, mean float64) Band {
	switch {
	case mean >= cfg.PositiveThreshold:
		return BandPositive
	case mean <= cfg.NegativeThreshold:
		return BandNegative
	default:
		return BandNeutral
	}
}

func lengthStats(values []int) LengthStats {
	stats := LengthStats{Values: values}
	if len(values) == 0 {
		return stats
	}

	stats.Min, stats.Max = values[0], values[0]
	var sum int
	for _, v := range values {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean = float64(sum) / float64(len(values))
	stats.Histogram = histogram(values, stats.Min, stats.Max)
	return stats
}

// histogram bins values into histogramBuckets equal-width buckets spanning
// [min, max]. Degenerate windows (all values equal) produce one bucket.
func histogram(values []int, minVal, maxVal int) []HistogramBucket {
	if minVal == maxVal {
		return []HistogramBucket{{From: minVal, To: maxVal, Count: len(values)}}
	}

	width := (maxVal - minVal + histogramBuckets) / histogramBuckets
	n := (maxVal-minVal)/width + 1
	buckets := make([]HistogramBucket, n)
	for i := range buckets {
		buckets[i].From = minVal + i*width
		buckets[i].To = minVal + (i+1)*width
	}
	for _, v := range values {
		buckets[(v-minVal)/width].Count++
	}
	return buckets
}
