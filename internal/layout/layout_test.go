package layout

import "testing"

func TestWriteMagicAndMagicOK(t *testing.T) {
	region := make([]byte, HeaderSize+BlockSizeDefault)
	WriteMagic(region, BlockSizeDefault)
	if !MagicOK(region) {
		t.Fatalf("MagicOK false right after WriteMagic")
	}
	if !VersionAndBlockSizeOK(region, BlockSizeDefault) {
		t.Fatalf("VersionAndBlockSizeOK false right after WriteMagic")
	}
	if VersionAndBlockSizeOK(region, BlockSizeDefault*2) {
		t.Fatalf("VersionAndBlockSizeOK true for the wrong block size")
	}
}

func TestMagicOKRejectsGarbage(t *testing.T) {
	region := make([]byte, HeaderSize)
	if MagicOK(region) {
		t.Fatalf("MagicOK true for a zeroed region")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	region := make([]byte, HeaderSize)
	h := NewHeader(region)
	h.SetMapSize(1 << 20)
	h.SetMetaDataSize(4096)
	h.SetFreeListFirst(7)
	h.SetFreeListLast(9)
	h.SetFreeCount(3)
	h.SetStateFlags(StateOpenBit | OpInsertGrow)

	if h.MapSize() != 1<<20 || h.MetaDataSize() != 4096 {
		t.Fatalf("map/meta size round trip failed")
	}
	if h.FreeListFirst() != 7 || h.FreeListLast() != 9 || h.FreeCount() != 3 {
		t.Fatalf("free list header fields round trip failed")
	}
	if !h.IsOpen() {
		t.Fatalf("IsOpen false after setting StateOpenBit")
	}
	if h.Op() != OpInsertGrow {
		t.Fatalf("Op() = %d, want OpInsertGrow", h.Op())
	}
}

func TestMetaDataSizeForSelfConsistency(t *testing.T) {
	blockSize := uint32(BlockSizeDefault)
	for _, minNodes := range []uint32{0, 1, 100, 10000} {
		meta := MetaDataSizeFor(minNodes, blockSize)
		if meta%blockSize != 0 {
			t.Fatalf("meta_data_size %d not a multiple of blockSize for minNodes=%d", meta, minNodes)
		}
		first := FirstDataBlockIndex(meta, blockSize)
		nodesAvailable := NodesInMeta(meta)
		if nodesAvailable <= first+minNodes {
			t.Fatalf("minNodes=%d: meta_data_size %d gives only %d node records but needs to cover first=%d + minNodes=%d",
				minNodes, meta, nodesAvailable, first, minNodes)
		}
		if first <= DummyIndex() {
			t.Fatalf("minNodes=%d: first data block index %d does not clear the dummy index %d", minNodes, first, DummyIndex())
		}
	}
}
