package memory

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// nonceBitmaps tracks unordered nonces: the high 248 bits select a word,
// the low 8 bits select a bit in it.
type nonceBitmaps map[common.Address]map[uint256.Int]uint256.Int

func nonceSlot(nonce *uint256.Int) (word uint256.Int, bit *uint256.Int) {
	word = *new(uint256.Int).Rsh(nonce, 8)
	bit = new(uint256.Int).Lsh(uint256.NewInt(1), uint(nonce.Uint64()&0xff))

	return word, bit
}

func (n nonceBitmaps) used(owner common.Address, nonce *uint256.Int) bool {
	words, ok := n[owner]
	if !ok {
		return false
	}

	word, bit := nonceSlot(nonce)
	bitmap := words[word]

	return !new(uint256.Int).And(&bitmap, bit).IsZero()
}

func (n nonceBitmaps) consume(owner common.Address, nonce *uint256.Int) {
	words, ok := n[owner]
	if !ok {
		words = make(map[uint256.Int]uint256.Int)
		n[owner] = words
	}

	word, bit := nonceSlot(nonce)
	bitmap := words[word]
	words[word] = *new(uint256.Int).Or(&bitmap, bit)
}
