// Package distance provides descriptor-space distance calculations.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricL1: Manhattan distance
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	fn, err := distance.Provider(distance.MetricL2)
//
// The metric chosen at vocabulary training time is persisted with the tree
// and reused for every transform; descriptors and centroids are always
// compared under the same metric.
package distance
