package wasm

// Hand-assembled modules implementing the add-on ABI. complete always
// answers [{"label":"wasmItem"}] from a static data segment.

var completionModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x12, 0x03, 0x60,
	0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x03,
	0x7f, 0x7f, 0x7f, 0x00, 0x03, 0x03, 0x02, 0x00, 0x01, 0x05, 0x03, 0x01,
	0x00, 0x01, 0x07, 0x1d, 0x03, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79,
	0x02, 0x00, 0x05, 0x61, 0x6c, 0x6c, 0x6f, 0x63, 0x00, 0x00, 0x08, 0x63,
	0x6f, 0x6d, 0x70, 0x6c, 0x65, 0x74, 0x65, 0x00, 0x01, 0x0a, 0x0c, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b, 0x04, 0x00, 0x41, 0x08, 0x0b, 0x0b,
	0x24, 0x01, 0x00, 0x41, 0x08, 0x0b, 0x1e, 0x10, 0x00, 0x00, 0x00, 0x16,
	0x00, 0x00, 0x00, 0x5b, 0x7b, 0x22, 0x6c, 0x61, 0x62, 0x65, 0x6c, 0x22,
	0x3a, 0x22, 0x77, 0x61, 0x73, 0x6d, 0x49, 0x74, 0x65, 0x6d, 0x22, 0x7d,
	0x5d,
}

// loggingModule also calls host.log_message(1, "hello") from complete.
var loggingModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x12, 0x03, 0x60,
	0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x03,
	0x7f, 0x7f, 0x7f, 0x00, 0x02, 0x14, 0x01, 0x04, 0x68, 0x6f, 0x73, 0x74,
	0x0b, 0x6c, 0x6f, 0x67, 0x5f, 0x6d, 0x65, 0x73, 0x73, 0x61, 0x67, 0x65,
	0x00, 0x02, 0x03, 0x03, 0x02, 0x00, 0x01, 0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x1d, 0x03, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00,
	0x05, 0x61, 0x6c, 0x6c, 0x6f, 0x63, 0x00, 0x01, 0x08, 0x63, 0x6f, 0x6d,
	0x70, 0x6c, 0x65, 0x74, 0x65, 0x00, 0x02, 0x0a, 0x14, 0x02, 0x05, 0x00,
	0x41, 0x80, 0x08, 0x0b, 0x0c, 0x00, 0x41, 0x01, 0x41, 0x30, 0x41, 0x05,
	0x10, 0x00, 0x41, 0x08, 0x0b, 0x0b, 0x2e, 0x02, 0x00, 0x41, 0x08, 0x0b,
	0x1e, 0x10, 0x00, 0x00, 0x00, 0x16, 0x00, 0x00, 0x00, 0x5b, 0x7b, 0x22,
	0x6c, 0x61, 0x62, 0x65, 0x6c, 0x22, 0x3a, 0x22, 0x77, 0x61, 0x73, 0x6d,
	0x49, 0x74, 0x65, 0x6d, 0x22, 0x7d, 0x5d, 0x00, 0x41, 0x30, 0x0b, 0x05,
	0x68, 0x65, 0x6c, 0x6c, 0x6f,
}

// spinningModule never returns from complete.
var spinningModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x12, 0x03, 0x60,
	0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x03,
	0x7f, 0x7f, 0x7f, 0x00, 0x03, 0x03, 0x02, 0x00, 0x01, 0x05, 0x03, 0x01,
	0x00, 0x01, 0x07, 0x1d, 0x03, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79,
	0x02, 0x00, 0x05, 0x61, 0x6c, 0x6c, 0x6f, 0x63, 0x00, 0x00, 0x08, 0x63,
	0x6f, 0x6d, 0x70, 0x6c, 0x65, 0x74, 0x65, 0x00, 0x01, 0x0a, 0x11, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b, 0x09, 0x00, 0x03, 0x40, 0x0c, 0x00,
	0x0b, 0x41, 0x08, 0x0b, 0x0b, 0x24, 0x01, 0x00, 0x41, 0x08, 0x0b, 0x1e,
	0x10, 0x00, 0x00, 0x00, 0x16, 0x00, 0x00, 0x00, 0x5b, 0x7b, 0x22, 0x6c,
	0x61, 0x62, 0x65, 0x6c, 0x22, 0x3a, 0x22, 0x77, 0x61, 0x73, 0x6d, 0x49,
	0x74, 0x65, 0x6d, 0x22, 0x7d, 0x5d,
}
