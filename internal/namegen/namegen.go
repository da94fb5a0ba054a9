// Package namegen produces pirate pseudonyms and anonymized item codes.
// Generation is random; uniqueness within an expedition is the caller's
// responsibility (checked against the store, with retries).
package namegen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// MaxAttempts bounds the number of collision retries a caller should
// make before giving up on random generation.
const MaxAttempts = 20

var ranks = []string{
	"Captain", "First Mate", "Quartermaster", "Boatswain", "Gunner",
	"Navigator", "Lookout", "Cook", "Surgeon", "Powder Monkey",
}

var epithets = []string{
	"Redbeard", "Blackheart", "Silverhook", "Stormcrow", "Saltdog",
	"Ironfist", "Greyjoy", "Longshanks", "Halfhand", "Goldtooth",
	"Seawolf", "Driftwood", "Squall", "Barnacle", "Cutlass",
	"Marlinspike", "Windlass", "Keelhaul", "Doubloon", "Tempest",
}

var cargoNouns = []string{
	"barrel", "crate", "chest", "sack", "cask",
	"bundle", "keg", "trunk", "bale", "flask",
}

// PirateName returns a random pseudonym such as "Captain Redbeard".
func PirateName() (string, error) {
	rank, err := pick(ranks)
	if err != nil {
		return "", err
	}
	epithet, err := pick(epithets)
	if err != nil {
		return "", err
	}
	return rank + " " + epithet, nil
}

// ItemCode returns a random anonymized item label such as
// "barrel-3f9c". The hex suffix keeps the label space large enough
// that collisions within one expedition are rare.
func ItemCode() (string, error) {
	noun, err := pick(cargoNouns)
	if err != nil {
		return "", err
	}

	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating item code suffix: %w", err)
	}
	return noun + "-" + hex.EncodeToString(suffix), nil
}

func pick(list []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", fmt.Errorf("picking random element: %w", err)
	}
	return list[n.Int64()], nil
}
