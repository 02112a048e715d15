// Package kmeans implements seeded k-means clustering.
//
// Used internally by vocabulary training to split descriptor subsets at
// every tree node.
package kmeans
