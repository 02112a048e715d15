// Package bowgo implements content-based image retrieval with a bag of
// visual words: a hierarchical k-means vocabulary tree quantizes local image
// descriptors into "visual words", images become sparse TF-IDF vectors over
// those words, and an inverted-index database answers top-N similarity
// queries without comparing against every stored image.
//
// The typical flow is Train -> New -> Add -> Query:
//
//	voc, err := bowgo.Train(ctx, trainingBatches, 9, 3)
//	if err != nil { ... }
//
//	db, err := bowgo.New(voc)
//	if err != nil { ... }
//
//	entry, err := db.Add(ctx, imageDescriptors)
//	results, err := db.Query(ctx, queryDescriptors, 4)
//
// Vocabularies are immutable once trained and may be shared across any
// number of databases and goroutines. Databases are safe for concurrent
// use. Both persist to a compact binary snapshot format (Save/Load) with
// optional LZ4 or ZSTD compression, to plain files or to a blob store;
// vocabularies additionally export to YAML or JSON for interchange.
package bowgo
