package partition

import "hash/fnv"

// Count is the fixed number of logical partitions. Changing it remaps every device.
const Count = 256

// For returns the partition a device's events live in.
// The same deviceID always maps to the same partition.
func For(deviceID string) int {
	h := fnv.New32a()
	h.Write([]byte(deviceID))
	return int(h.Sum32() % Count)
}
