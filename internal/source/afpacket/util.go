package afpacket

import (
	"fmt"
)

const (
	tpacketAlignment = 16 // TPACKET_ALIGNMENT
	tpacketHdrLen    = 52 // approximate TPACKET3_HDRLEN
	maxBlockSize     = 4 << 20
)

// recomputeSize derives an AF_PACKET ring geometry for a memory budget.
//
// The kernel requires frameSize to be TPACKET_ALIGNMENT aligned, blockSize
// to be a multiple of the page size and of frameSize, and the ring to be
// blockSize*numBlocks bytes.
func recomputeSize(ringBufferSizeMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if ringBufferSizeMB <= 0 {
		return 0, 0, 0, fmt.Errorf("buffer_size_mb must be positive, got %d", ringBufferSizeMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("snap_len must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return 0, 0, 0, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	frameSize = alignUp(tpacketHdrLen+snapLen, tpacketAlignment)

	blockSize = lcm(pageSize, frameSize)
	if blockSize > maxBlockSize {
		// Page-sized frames keep one frame per block divisible by both.
		frameSize = alignUp(frameSize, pageSize)
		blockSize = frameSize
	}

	numBlocks = ringBufferSizeMB * 1024 * 1024 / blockSize
	if numBlocks < 1 {
		numBlocks = 1
	}
	return frameSize, blockSize, numBlocks, nil
}

func alignUp(n, align int) int {
	return ((n + align - 1) / align) * align
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
