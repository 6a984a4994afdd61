package render

import "strings"

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

var overlayCellColor = colorRGB{R: 200, G: 190, B: 60}

// View composites the three surfaces into cols×rows braille cells, each
// covering a 2×4 dot grid scaled over the surface. Cells holding only
// statistics lines are tinted.
func (e *Engine) View(cols, rows int) []string {
	return e.view(cols, rows, currentColorProfile())
}

func (e *Engine) view(cols, rows int, p colorProfile) []string {
	if e.surfaces == nil || cols < 1 || rows < 1 {
		return nil
	}
	w, h := e.surfaces.Size()
	if w == 0 || h == 0 {
		return nil
	}

	dotCols := cols * 2
	dotRows := rows * 4
	xs := spans(w, dotCols)
	ys := spans(h, dotRows)

	lines := make([]string, rows)
	for r := range rows {
		var line strings.Builder
		color := newANSIState(p)
		for c := range cols {
			var wave, stats uint
			for dx := range 2 {
				for dy := range 4 {
					bit := uint(1) << brailleBits[dx][dy]
					xr, yr := xs[c*2+dx], ys[r*4+dy]
					if e.litWave(xr, yr) {
						wave |= bit
					} else if e.litStats(xr, yr) {
						stats |= bit
					}
				}
			}
			switch {
			case wave != 0:
				color.reset(&line)
				line.WriteRune(rune(0x2800 + wave))
			case stats != 0:
				color.set(&line, overlayCellColor)
				line.WriteRune(rune(0x2800 + stats))
			default:
				line.WriteByte(' ')
			}
		}
		color.reset(&line)
		lines[r] = line.String()
	}
	return lines
}

type span struct{ lo, hi int }

// spans splits n pixels over k dots; every dot covers at least one pixel.
func spans(n, k int) []span {
	out := make([]span, k)
	for i := range k {
		lo := i * n / k
		hi := (i + 1) * n / k
		if hi <= lo {
			hi = lo + 1
		}
		if hi > n {
			hi = n
			lo = min(lo, n-1)
		}
		out[i] = span{lo, hi}
	}
	return out
}

func (e *Engine) litWave(xr, yr span) bool {
	wf, cn := e.surfaces.Waveform, e.surfaces.Connectors
	for y := yr.lo; y < yr.hi; y++ {
		for x := xr.lo; x < xr.hi; x++ {
			if wf.Pix[wf.PixOffset(x, y)] != 0 {
				return true
			}
			if cn.Pix[cn.PixOffset(x, y)+3] != 0 {
				return true
			}
		}
	}
	return false
}

func (e *Engine) litStats(xr, yr span) bool {
	ov := e.surfaces.Overlay
	for y := yr.lo; y < yr.hi; y++ {
		for x := xr.lo; x < xr.hi; x++ {
			if ov.Pix[ov.PixOffset(x, y)+3] != 0 {
				return true
			}
		}
	}
	return false
}
