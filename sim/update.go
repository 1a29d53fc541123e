package sim

import (
	"math"
	"runtime"
	"sync"
)

// parallelThreshold is the minimum index count to dispatch to the pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 256

// lifeEpsilon keeps the turbulence response nonzero for nearly-dead
// particles so they drift instead of freezing in place.
const lifeEpsilon = 0.05

// workChunk is a half-open index range for one worker dispatch.
type workChunk struct {
	start, end int
}

// workerPool runs a pass function over index chunks on persistent workers.
// The passes are data-parallel: each index writes only its own slots, so
// results are identical to serial execution regardless of worker count.
type workerPool struct {
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool

	// fn is the pass for the current dispatch. Written before chunks are
	// sent; workers observe it through the channel receive.
	fn func(start, end int)
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: numWorkers}
}

func (p *workerPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *workerPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run executes fn over [0, n) in chunks, falling back to a serial call for
// small n.
func (p *workerPool) run(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n)
		return
	}

	p.start()
	p.fn = fn

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// integrateChunk advances particles in [i0, i1): turbulence perturbation,
// friction, position integration, and life decay. Reads the front buffers,
// writes the back buffers only at its own indices.
func (e *Engine) integrateChunk(i0, i1 int, p Params) {
	scale := float32(e.fieldScale) * p.TurbFreq
	damp := 1 - p.Friction

	for i := i0; i < i1; i++ {
		pl := e.st.PosLife[i]
		if pl.W <= 0 {
			// Dead slot: life must stay <= 0 until the spawn pass claims it.
			e.st.nextPosLife[i] = pl
			e.st.nextVel[i] = e.st.Vel[i]
			continue
		}

		vel := e.st.Vel[i]

		n := e.field.Sample(pl.X*scale, pl.Y*scale, pl.Z*scale)
		perturb := n.Scale(p.TurbAmp * (pl.W + lifeEpsilon))
		vel = vel.Add(perturb)
		vel = vel.Scale(damp)

		pl.X += vel.X * p.DT
		pl.Y += vel.Y * p.DT
		pl.Z += vel.Z * p.DT
		pl.W -= p.DT / p.Lifetime

		e.st.nextPosLife[i] = pl
		e.st.nextVel[i] = vel
	}
}

// neighbor tracks one nearest-candidate during the scan.
type neighbor struct {
	distSq float32
	pos    Vec3
	life   float32
	found  bool
}

// linkChunk rebuilds link quads for particles in [i0, i1). For each live
// particle it scans the whole pool for the two closest other live particles
// (strictly positive squared distance; ties resolve to the first candidate
// in index order) and emits two camera-facing ribbon quads. Dead slots get
// fully transparent vertices.
func (e *Engine) linkChunk(i0, i1 int, p Params) {
	n := e.st.N
	halfWidth := float32(e.linkHalfWidth)

	for i := i0; i < i1; i++ {
		base := i * VerticesPerParticle
		self := e.st.PosLife[i]
		if self.W <= 0 {
			for v := 0; v < VerticesPerParticle; v++ {
				e.links[base+v] = LinkVertex{}
			}
			continue
		}

		pos := Vec3{self.X, self.Y, self.Z}
		var first, second neighbor
		first.distSq = math.MaxFloat32
		second.distSq = math.MaxFloat32

		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			other := e.st.PosLife[j]
			if other.W <= 0 {
				continue
			}
			dx := other.X - self.X
			dy := other.Y - self.Y
			dz := other.Z - self.Z
			d := dx*dx + dy*dy + dz*dz
			if d <= 0 {
				continue
			}
			switch {
			case d < first.distSq:
				second = first
				first = neighbor{distSq: d, pos: Vec3{other.X, other.Y, other.Z}, life: other.W, found: true}
			case d < second.distSq:
				second = neighbor{distSq: d, pos: Vec3{other.X, other.Y, other.Z}, life: other.W, found: true}
			}
		}

		r, g, b := e.instanceColor(i)
		e.emitLink(base, pos, self.W, first, halfWidth, r, g, b)
		e.emitLink(base+4, pos, self.W, second, halfWidth, r, g, b)
	}
}

// linkAxis is the fixed offset axis for ribbon half-width. Edges parallel to
// it fall back to the X axis.
var linkAxis = Vec3{0, 1, 0}

// emitLink writes one quad (4 vertices) at links[base:base+4].
func (e *Engine) emitLink(base int, from Vec3, ownLife float32, nb neighbor, halfWidth float32, r, g, b float32) {
	if !nb.found {
		for v := 0; v < 4; v++ {
			e.links[base+v] = LinkVertex{}
		}
		return
	}

	// Perceptual fade: ^0.8 keeps links visible longer than a linear fade.
	life := nb.life
	if ownLife < life {
		life = ownLife
	}
	if life < 0 {
		life = 0
	}
	alpha := float32(math.Pow(float64(life), 0.8))

	dir := nb.pos.Sub(from)
	perp := dir.Cross(linkAxis).Normalized(Vec3{1, 0, 0}).Scale(halfWidth)

	e.links[base+0] = LinkVertex{Pos: from.Sub(perp), R: r, G: g, B: b, Alpha: alpha}
	e.links[base+1] = LinkVertex{Pos: from.Add(perp), R: r, G: g, B: b, Alpha: alpha}
	e.links[base+2] = LinkVertex{Pos: nb.pos.Sub(perp), R: r, G: g, B: b, Alpha: alpha}
	e.links[base+3] = LinkVertex{Pos: nb.pos.Add(perp), R: r, G: g, B: b, Alpha: alpha}
}

// instanceColor derives the hue-rotated per-particle color.
func (e *Engine) instanceColor(i int) (r, g, b float32) {
	hue := e.baseHue + e.colorOffset*60 + float64(i)/float64(e.st.N)*90
	return hueToRGB(hue)
}
