package layout

import (
	"context"
	"math"
)

// Result summarizes a Run.
type Result struct {
	Iterations int     `json:"iterations" yaml:"iterations"`
	Converged  bool    `json:"converged" yaml:"converged"`
	Energy     float64 `json:"energy" yaml:"energy"`
}

// Step advances the simulation by one tick and returns the total absolute
// velocity of the free nodes afterwards.
func (l *Layout) Step() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.step()
}

// Run steps until the total velocity drops below the convergence threshold
// or the iteration cap is reached. The lock is released between ticks so
// Positions can be polled while Run works on another goroutine.
func (l *Layout) Run(ctx context.Context) (Result, error) {
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		l.mu.Lock()
		if res.Iterations >= l.cfg.MaxIterations {
			l.mu.Unlock()
			break
		}
		res.Energy = l.step()
		res.Iterations++
		res.Converged = res.Energy < l.cfg.ConvergenceThreshold
		l.mu.Unlock()
		if res.Converged {
			break
		}
	}
	l.logger.Debug("layout finished",
		"nodes", len(l.bodies),
		"iterations", res.Iterations,
		"converged", res.Converged,
		"energy", res.Energy)
	return res, nil
}

func (l *Layout) step() float64 {
	c := l.cfg
	forces := make([]Point, len(l.bodies))

	l.repel(forces)
	l.attract(forces)

	cx, cy := c.Width/2, c.Height/2
	for i, b := range l.bodies {
		forces[i].X += (cx - b.pos.X) * c.CenteringStrength
		forces[i].Y += (cy - b.pos.Y) * c.CenteringStrength

		target := l.axisTarget(b.depth)
		if c.Direction.horizontal() {
			forces[i].X += (target - b.pos.X) * c.HierarchicalStrength
		} else {
			forces[i].Y += (target - b.pos.Y) * c.HierarchicalStrength
		}
	}

	var energy float64
	for i, b := range l.bodies {
		if b.fixed {
			b.pos = b.pin
			b.vel = Point{}
			continue
		}
		b.vel.X += forces[i].X
		b.vel.Y += forces[i].Y

		// Inelastic bounce off the padded canvas edge.
		next := Point{X: b.pos.X + b.vel.X, Y: b.pos.Y + b.vel.Y}
		if next.X < c.Padding || next.X > c.Width-c.Padding {
			b.vel.X = -b.vel.X * 0.5
		}
		if next.Y < c.Padding || next.Y > c.Height-c.Padding {
			b.vel.Y = -b.vel.Y * 0.5
		}

		b.vel.X *= c.Damping
		b.vel.Y *= c.Damping
		if speed := math.Hypot(b.vel.X, b.vel.Y); speed > c.MaxVelocity {
			scale := c.MaxVelocity / speed
			b.vel.X *= scale
			b.vel.Y *= scale
		}

		b.pos.X += b.vel.X
		b.pos.Y += b.vel.Y
		b.pos = l.clamp(b.pos)
		energy += math.Abs(b.vel.X) + math.Abs(b.vel.Y)
	}
	return energy
}

// repel applies the inverse-square push between nearby node pairs.
func (l *Layout) repel(forces []Point) {
	c := l.cfg
	if c.RepulsionStrength == 0 {
		return
	}
	for i := 0; i < len(l.bodies); i++ {
		a := l.bodies[i]
		for j := i + 1; j < len(l.bodies); j++ {
			b := l.bodies[j]
			dx := a.pos.X - b.pos.X
			dy := a.pos.Y - b.pos.Y
			d := math.Hypot(dx, dy)
			cutoff := 3 * (a.half() + b.half() + c.MinNodeDistance)
			if d >= cutoff {
				continue
			}
			if d < 1e-3 {
				// Coincident nodes: separate them along a fixed diagonal.
				dx, dy = 0.1, 0.1*float64(j-i)
				d = math.Hypot(dx, dy)
			}
			f := c.RepulsionStrength / (d * d)
			fx, fy := f*dx/d, f*dy/d
			forces[i].X += fx
			forces[i].Y += fy
			forces[j].X -= fx
			forces[j].Y -= fy
		}
	}
}

// attract applies a Hookean spring per edge toward the ideal length.
func (l *Layout) attract(forces []Point) {
	c := l.cfg
	for _, s := range l.springs {
		a, b := l.bodies[s.a], l.bodies[s.b]
		dx := b.pos.X - a.pos.X
		dy := b.pos.Y - a.pos.Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		f := c.AttractionStrength * (d - c.IdealEdgeLength) * s.weight
		fx, fy := f*dx/d, f*dy/d
		forces[s.a].X += fx
		forces[s.a].Y += fy
		forces[s.b].X -= fx
		forces[s.b].Y -= fy
	}
}

func (b *body) half() float64 {
	return max(b.w, b.h) / 2
}
