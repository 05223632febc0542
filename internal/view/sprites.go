package view

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"golang.org/x/image/colornames"
)

// Every design faces "Up"; the renderer adds math.Pi/2 to align it with the velocity.
var spriteDesigns = [simulation.SpriteCount]struct {
	rows    []string
	palette map[rune]color.RGBA
}{
	{
		// Sleek arrow jet
		rows: []string{
			"...C...",
			"..CWC..",
			"..CBC..",
			".BBBBB.",
			"B.B.B.B",
			"D..Y..D",
		},
		palette: map[rune]color.RGBA{
			'C': colornames.Cyan,
			'W': colornames.White,
			'B': colornames.Dodgerblue,
			'D': colornames.Navy,
			'Y': colornames.Gold,
		},
	},
	{
		// Swallow
		rows: []string{
			"...K...",
			"..KOK..",
			".KKOKK.",
			"KK.O.KK",
			"K..O..K",
			"..R.R..",
		},
		palette: map[rune]color.RGBA{
			'K': colornames.Darkslategray,
			'O': colornames.Orange,
			'R': colornames.Firebrick,
		},
	},
	{
		// Saucer
		rows: []string{
			"..GWG..",
			".GGGGG.",
			"PPPPPPP",
			"BPYPYPB",
			".R.R.R.",
		},
		palette: map[rune]color.RGBA{
			'G': colornames.Limegreen,
			'W': colornames.Honeydew,
			'P': colornames.Mediumpurple,
			'B': colornames.Deepskyblue,
			'Y': colornames.Yellow,
			'R': colornames.Orangered,
		},
	},
	{
		// Dart
		rows: []string{
			"...M...",
			"...M...",
			"..MPM..",
			"..MPM..",
			".M.P.M.",
			"M..S..M",
		},
		palette: map[rune]color.RGBA{
			'M': colornames.Hotpink,
			'P': colornames.Plum,
			'S': colornames.Silver,
		},
	},
}

var (
	spritesOnce sync.Once
	sprites     [simulation.SpriteCount]*ebiten.Image
)

// spriteFor returns the image drawn for id, building all of them on first use.
func spriteFor(id simulation.SpriteID) *ebiten.Image {
	spritesOnce.Do(func() {
		for i, d := range spriteDesigns {
			sprites[i] = generateSprite(d.rows, d.palette)
		}
	})
	return sprites[int(id)%len(sprites)]
}

// generateSprite converts an ASCII grid into an Ebiten image
func generateSprite(design []string, palette map[rune]color.RGBA) *ebiten.Image {
	w := 0
	for _, row := range design {
		w = max(w, len(row))
	}
	img := ebiten.NewImage(w, len(design))
	for y, row := range design {
		for x, char := range row {
			if col, ok := palette[char]; ok {
				img.Set(x, y, col)
			}
		}
	}
	return img
}
