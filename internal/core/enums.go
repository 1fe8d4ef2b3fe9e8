package core

// DistanceMetric defines the distance metric used to compare projected samples.
type DistanceMetric string

const (
	// MetricEuclidean is the default L2 distance (lower is closer).
	MetricEuclidean DistanceMetric = "euclidean"
	// MetricCosine is the Cosine distance (1.0 - cosine_similarity).
	MetricCosine DistanceMetric = "cosine"
)

// SetName identifies which side of a comparison a sample belongs to.
type SetName string

const (
	SetGallery SetName = "gallery"
	SetProbe   SetName = "probe"
	// SetSample labels a single sample projected outside of any set.
	SetSample SetName = "sample"
	// SetModel is used when the offending vector belongs to the subspace itself.
	SetModel SetName = "model"
)
