// Command graphdemo wires a one-producer-one-consumer passthrough graph
// (spec.md §8 scenario S1) and runs it for a fixed number of cycles, then
// prints the first byte of the last buffer the consumer's input port
// received from the producer's output port.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/graphkit/mediagraph"
	"github.com/graphkit/mediagraph/internal/logging"
	"github.com/graphkit/mediagraph/internal/wire"
)

// quantumBytes exceeds internal/constants.InlineBufferSize so the demo's
// buffers exercise the bufpool overflow path instead of the inline one.
const quantumBytes = 128 * 1024

// producerImpl fills one buffer with an incrementing byte pattern per
// cycle and queues it back to the graph side.
type producerImpl struct {
	mediagraph.MockNodeImpl
	port  *mediagraph.Port
	tick  byte
}

func newProducerImpl(port *mediagraph.Port) *producerImpl {
	p := &producerImpl{port: port}
	p.ProcessFunc = p.process
	return p
}

func (p *producerImpl) process(ctx context.Context) int32 {
	id, err := p.port.DequeueBuffer()
	if err != nil {
		return int32(mediagraph.StatusNeedData)
	}
	buf, _ := p.port.Buffer(id)
	for i := range buf.Data[0].Ptr {
		buf.Data[0].Ptr[i] = p.tick
	}
	buf.Data[0].Chunk.Size = quantumBytes
	p.tick++
	if err := p.port.QueueBuffer(id); err != nil {
		log.Printf("producer: queue_buffer: %v", err)
	}
	return int32(mediagraph.StatusHaveData)
}

// consumerImpl reads whatever buffer the graph handed it and reports the
// first byte of the payload (the producer's tick counter) back out.
type consumerImpl struct {
	mediagraph.MockNodeImpl
	port *mediagraph.Port
	last byte
}

func newConsumerImpl(port *mediagraph.Port) *consumerImpl {
	c := &consumerImpl{port: port}
	c.ProcessFunc = c.process
	return c
}

func (c *consumerImpl) process(ctx context.Context) int32 {
	id, err := c.port.PopQueued()
	if err != nil {
		return int32(mediagraph.StatusNeedData)
	}
	buf, _ := c.port.Buffer(id)
	if len(buf.Data[0].Ptr) > 0 {
		c.last = buf.Data[0].Ptr[0]
	}
	_ = c.port.QueueBuffer(id)
	return int32(mediagraph.StatusHaveData)
}

func makeBuffers(n int) []*mediagraph.Buffer {
	out := make([]*mediagraph.Buffer, n)
	for i := range out {
		out[i] = mediagraph.NewBuffer(uint32(i), []mediagraph.Data{
			mediagraph.NewDataPlane(wire.DataMemPtr, quantumBytes),
		})
	}
	return out
}

func main() {
	cycles := flag.Int("cycles", 100, "number of driver cycles to run")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewLogger(logConfig))

	graph := mediagraph.NewGraph()

	outPort := mediagraph.NewPort(graph.NewPortID(), 0, mediagraph.DirectionOutput, 8)
	producer := graph.AddNode(newProducerImpl(outPort))
	outPort.Node = producer.ID
	if err := producer.AddPort(outPort); err != nil {
		log.Fatalf("producer.AddPort: %v", err)
	}
	if err := outPort.UseBuffers(makeBuffers(2)); err != nil {
		log.Fatalf("outPort.UseBuffers: %v", err)
	}
	producer.Driver = true // producer is its own driver (spec.md §8 S1)

	inPort := mediagraph.NewPort(graph.NewPortID(), 0, mediagraph.DirectionInput, 8)
	consumer := graph.AddNode(newConsumerImpl(inPort))
	inPort.Node = consumer.ID
	if err := consumer.AddPort(inPort); err != nil {
		log.Fatalf("consumer.AddPort: %v", err)
	}
	if err := inPort.UseBuffers(outPort.Buffers()); err != nil {
		log.Fatalf("inPort.UseBuffers: %v", err)
	}

	if _, err := graph.AddLink(producer.ID, outPort.ID, consumer.ID, inPort.ID); err != nil {
		log.Fatalf("graph.AddLink: %v", err)
	}

	ctx := context.Background()
	scheduler := graph.Scheduler()

	for i := 0; i < *cycles; i++ {
		if err := scheduler.RunDriverCycle(producer); err != nil {
			log.Fatalf("cycle %d: driver: %v", i, err)
		}
		if err := scheduler.RunNodeCycle(ctx, producer); err != nil {
			log.Fatalf("cycle %d: producer: %v", i, err)
		}
		if err := scheduler.RunNodeCycle(ctx, consumer); err != nil {
			log.Fatalf("cycle %d: consumer: %v", i, err)
		}
	}

	fmt.Printf("ran %d cycles, consumer last saw tick=%d\n", *cycles, consumer.Impl.(*consumerImpl).last)
}
