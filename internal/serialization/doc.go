// Package serialization stores weight tensors in the SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: header size (uint64 LE)]
//	  [header size bytes: JSON header]
//	  [tensor data: raw little-endian bytes]
//
// The JSON header maps each tensor name to its dtype, shape and
// [start, end) byte offsets inside the data section. An optional
// "__metadata__" entry holds string key/value pairs.
//
// Example usage:
//
//	weights, _ := kernel.Bilinear(2, 2, 3, false, tensor.Float32)
//	if err := serialization.WriteSafeTensors("up.safetensors", weights.StateDict("up"), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	file, err := serialization.ReadSafeTensors("up.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	kernel := file.Tensors["up.kernel"]
package serialization
