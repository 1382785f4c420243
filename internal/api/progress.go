package api

import "io"

// ProgressFunc receives upload transfer progress as a 0–100 percentage.
type ProgressFunc func(percent int)

// progressReader reports read progress against a known total. Percentages
// are monotonic and deduplicated so a callback fires at most 101 times.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	last  int
	fn    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.fn(percent)
		}
	}
	return n, err
}
