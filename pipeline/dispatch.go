package pipeline

import (
	"container/list"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SludgePhD/Providence/internal/metrics"
	"github.com/SludgePhD/Providence/publisher"
	"github.com/SludgePhD/Providence/wire"
)

type faceTrackJob struct {
	img     Image
	promise promise[FrameOutput]
}

type assemblerJob struct {
	inner        handle[FrameOutput]
	img          Image
	promise      promise[wire.FaceData]
	ephemeralID  uint32
	persistentID wire.PersistentID
}

// Pipeline glues capture to the publisher through the face-track and
// assembler worker stages, per spec.md §4.8: capture and dispatch share
// one goroutine (the "main thread"), while face-track and assembler each
// run on their own dedicated goroutine, connected by one-shot
// promise/handle pairs that preserve arrival order.
type Pipeline struct {
	open      func() (ImageSource, error)
	guard     *Guard
	tracker   *FaceTracker
	assembler *Assembler
	publisher *publisher.Publisher
	clock     Clock
	logger    *zap.Logger

	faceTrackCh chan faceTrackJob
	assemblerCh chan assemblerJob

	captureStats   *StageStats
	faceTrackStats *StageStats
	assemblerStats *StageStats
}

// NewPipeline constructs a Pipeline and starts its face-track and
// assembler worker goroutines. open is called to acquire (and, after
// connection gating, reacquire) the image source. registry may be nil to
// disable per-stage metrics.
func NewPipeline(open func() (ImageSource, error), guard *Guard, tracker *FaceTracker, assembler *Assembler, pub *publisher.Publisher, registry *metrics.Registry, logger *zap.Logger) *Pipeline {
	p := &Pipeline{
		open:           open,
		guard:          guard,
		tracker:        tracker,
		assembler:      assembler,
		publisher:      pub,
		clock:          NewClock(),
		logger:         logger,
		faceTrackCh:    make(chan faceTrackJob, 1),
		assemblerCh:    make(chan assemblerJob, 1),
		captureStats:   NewStageStats("capture", registry),
		faceTrackStats: NewStageStats("facetrack", registry),
		assemblerStats: NewStageStats("assembler", registry),
	}
	go p.runFaceTrackWorker()
	go p.runAssemblerWorker()
	return p
}

func (p *Pipeline) runFaceTrackWorker() {
	for job := range p.faceTrackCh {
		start := time.Now()
		out, ok := p.tracker.Process(job.img)
		p.faceTrackStats.Record(time.Since(start))
		if !ok {
			job.promise.drop()
			continue
		}
		job.promise.resolve(out)
	}
}

func (p *Pipeline) runAssemblerWorker() {
	for job := range p.assemblerCh {
		out, ok := job.inner.wait()
		if !ok {
			job.promise.drop()
			continue
		}
		start := time.Now()
		face := p.assembler.Assemble(job.ephemeralID, job.persistentID, out, job.img)
		p.assemblerStats.Record(time.Since(start))
		job.promise.resolve(face)
	}
}

// Run drives the capture/dispatch loop until ctx is done or opening the
// image source fails. It owns opening and reopening the source itself,
// per the connection-gating rule in spec.md §4.8.
func (p *Pipeline) Run(ctx context.Context) error {
	queue := list.New()
	defer drainQueue(queue)

	var source ImageSource
	reopen := func() error {
		s, err := p.open()
		if err != nil {
			return err
		}
		source = s
		return nil
	}
	if err := reopen(); err != nil {
		return err
	}
	defer func() {
		if source != nil {
			source.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !p.publisher.HasConnection() {
			drainQueue(queue)
			p.publisher.Clear()
			if source != nil {
				source.Close()
				source = nil
			}
			p.publisher.BlockUntilConnected()
			if err := reopen(); err != nil {
				return err
			}
		}

		if err := p.guard.Wait(ctx); err != nil {
			return err
		}

		readStart := time.Now()
		img, err := source.Read()
		p.captureStats.Record(time.Since(readStart))
		if err != nil {
			p.logger.Warn("pipeline: capture read failed", zap.Error(err))
			continue
		}

		innerP, innerH := newPromise[FrameOutput]()
		outP, outH := newPromise[wire.FaceData]()

		p.faceTrackCh <- faceTrackJob{img: img, promise: innerP}
		p.assemblerCh <- assemblerJob{
			inner:   innerH,
			img:     img,
			promise: outP,
			// EphemeralID is always zero: this pipeline does not yet
			// produce true per-face tracking identity (Open Question 2).
			ephemeralID:  0,
			persistentID: wire.PersistentID{Kind: wire.PersistentIDUnknown},
		}
		queue.PushBack(outH)

		for queue.Len() > 0 {
			front := queue.Front().Value.(handle[wire.FaceData])
			if !front.ready() {
				break
			}
			queue.Remove(queue.Front())
			face, ok := front.poll()
			var faces []wire.FaceData
			if ok {
				faces = []wire.FaceData{face}
			}
			p.publisher.Publish(&wire.TrackingMessage{Timestamp: p.clock.Timestamp(), Faces: faces})
		}
	}
}

func drainQueue(queue *list.List) {
	for queue.Len() > 0 {
		queue.Remove(queue.Front())
	}
}

// Close stops the pipeline's worker goroutines. Run must have returned
// before calling Close.
func (p *Pipeline) Close() {
	close(p.faceTrackCh)
	close(p.assemblerCh)
}
