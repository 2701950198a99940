package sim

// Cost is the predicted resource footprint of one simulation: resident
// memory for the full grid plus a computational-volume figure that scales
// with time-step count. Volume is converted to wall-seconds by the solver's
// cluster-specific slope constant.
type Cost struct {
	MemoryBytes int64
	MemoryGB    float64
	// Volume is MemoryBytes * NT. Work tracks the memory footprint swept per
	// step rather than FLOPs.
	Volume float64
}

// The finite-difference kernel keeps 31 single-precision state arrays per
// grid point, plus halo/surface exchange buffers proportional to the largest
// face and two edge vectors.
const (
	bytesPerValue  = 4
	arraysPerPoint = 31
	surfaceFactor  = 56
	edgeFactor     = 6
)

// EstimateCost computes the memory footprint and computational volume for p.
func EstimateCost(p Profile) (Cost, error) {
	if p.NX <= 0 || p.NY <= 0 || p.NZ <= 0 {
		return Cost{}, &MissingParameterError{Param: "nx/ny/nz"}
	}
	if p.NT <= 0 {
		return Cost{}, &MissingParameterError{Param: "nt or sim_duration"}
	}

	nx, ny, nz := int64(p.NX), int64(p.NY), int64(p.NZ)
	surface := nx * ny
	if ny*nz > surface {
		surface = ny * nz
	}
	if nx*nz > surface {
		surface = nx * nz
	}

	bytes := bytesPerValue * (arraysPerPoint*nx*ny*nz + surfaceFactor*surface + edgeFactor*(nx+nz))
	return Cost{
		MemoryBytes: bytes,
		MemoryGB:    float64(bytes) / float64(1<<30),
		Volume:      float64(bytes) * float64(p.NT),
	}, nil
}
