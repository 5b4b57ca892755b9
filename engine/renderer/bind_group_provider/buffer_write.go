package bind_group_provider

// BufferWrite is one queued write of Data into the uniform buffer a provider holds at Binding.
// Offset is in bytes from the start of that buffer.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  uint32
	Offset   uint64
	Data     []byte
}
