package badger

// Key prefixes for different data types
const (
	spectrumPrefix       = "spec:"
	classificationPrefix = "taxrec:"
	checkpointPrefix     = "chkpt:"
)

// makeSpectrumKey generates a key for a spectrum entry by name.
// Keys sort in name order.
func makeSpectrumKey(name string) []byte {
	return append([]byte(spectrumPrefix), name...)
}

// spectrumName recovers the entry name from a spectrum key.
func spectrumName(key []byte) string {
	return string(key[len(spectrumPrefix):])
}

// makeClassificationKey generates a key for a classification record.
func makeClassificationKey(name string) []byte {
	return append([]byte(classificationPrefix), name...)
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return append([]byte(checkpointPrefix), processorType...)
}
