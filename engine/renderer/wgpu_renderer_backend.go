package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is the native object stored on a resource.Texture created by this backend.
type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// wgpuPipeline is the native object stored on a pipeline.Pipeline created by this backend.
type wgpuPipeline struct {
	render  *wgpu.RenderPipeline
	layouts []*wgpu.BindGroupLayout
	// group0 lists the bindings of group 0 in binding order; batches fill them by slot
	group0 []shader.Binding
}

// bindGroupKey identifies the resources bound to group 0 for one draw.
type bindGroupKey struct {
	pipeline string
	ids      [8]uint64
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor
	width, height        int

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampler     *wgpu.Sampler

	nextID    atomic.Uint64
	pipelines map[string]pipeline.Pipeline
	buffers   map[uint64]*resource.MappedBuffer
	bindings  map[bindGroupKey]*wgpu.BindGroup

	// Frame state for the batch currently being translated
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	presentReady bool

	signaled  atomic.Uint64
	completed atomic.Uint64
	released  bool

	// pollers counts CompletionEvent goroutines; Release closes stopPolling and waits for
	// them before the device goes away.
	pollers     sync.WaitGroup
	stopPolling chan struct{}
}

// pollBackoff is how long a completion poller sleeps while its value is not yet signaled.
const pollBackoff = time.Millisecond

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, surface, adapter, device and queue. It locks
// the calling goroutine to its OS thread, which must be the thread that owns the window.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		pipelines:   make(map[string]pipeline.Pipeline),
		buffers:     make(map[uint64]*resource.MappedBuffer),
		bindings:    make(map[bindGroupKey]*wgpu.BindGroup),
		stopPolling: make(chan struct{}),
	}
	if surfaceDescriptor == nil {
		return nil, &common.FatalInitError{Stage: "surface", Err: errors.New("no surface descriptor")}
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, &common.FatalInitError{Stage: "adapter", Err: err}
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, &common.FatalInitError{Stage: "device", Err: err}
	}
	w.device = d
	w.queue = d.GetQueue()

	w.sampler, err = d.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Default Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, &common.FatalInitError{Stage: "sampler", Err: err}
	}

	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}
	b.width, b.height = width, height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// View is set per frame to the swapchain view; clear values come from the batch.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpLoad,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) CreateLinearBuffer(label string, size uint64) (*resource.MappedBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if size == 0 {
		return nil, fmt.Errorf("%q: zero-sized allocation", label)
	}
	// queue writes and uniform bindings both want 16-byte multiples
	aligned := (size + 15) &^ 15
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             aligned,
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageIndex | wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}

	id := b.nextID.Add(1)
	mapped := resource.NewMappedBuffer(id, label, make([]byte, aligned), buf, func() {
		b.mu.Lock()
		delete(b.buffers, id)
		b.mu.Unlock()
		buf.Release()
	})
	b.buffers[id] = mapped
	return mapped, nil
}

func (b *wgpuRendererBackendImpl) CreateTexture(label string, metadata common.TextureMetadata) (*resource.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	format := wgpu.TextureFormatRGBA8UnormSrgb
	if metadata.Format == common.PixelFormatRGBA8Unorm {
		format = wgpu.TextureFormatRGBA8Unorm
	}
	dimension := wgpu.TextureDimension2D
	if metadata.Dimension == common.TextureDimension3D {
		dimension = wgpu.TextureDimension3D
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: dimension,
		Size: wgpu.Extent3D{
			Width:              metadata.Width,
			Height:             metadata.Height,
			DepthOrArrayLayers: max(metadata.ArraySize, 1),
		},
		Format:        format,
		MipLevelCount: metadata.MipLevels,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	native := &wgpuTexture{texture: tex, view: view}
	return resource.NewTexture(b.nextID.Add(1), label, metadata, native, func() {
		view.Release()
		tex.Release()
	}), nil
}

func (b *wgpuRendererBackendImpl) UploadMips(tex *resource.Texture, chain common.MipChain) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	native, ok := tex.Native().(*wgpuTexture)
	if !ok {
		return fmt.Errorf("texture %q was not created by the wgpu backend", tex.Label())
	}
	layers := max(chain.Metadata.ArraySize, 1)
	for i, level := range chain.Levels {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  native.texture,
				MipLevel: uint32(i),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			level.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  level.RowPitch,
				RowsPerImage: level.SlicePitch / level.RowPitch,
			},
			&wgpu.Extent3D{
				Width:              level.Width,
				Height:             level.Height,
				DepthOrArrayLayers: layers,
			},
		)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) CreatePipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return errors.New("surface must be configured before creating a render pipeline")
	}
	vertexShader := p.Shader(shader.StageVertex)
	fragmentShader := p.Shader(shader.StageFragment)

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source,
		},
	})
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source,
		},
	})
	if err != nil {
		return err
	}
	defer fs.Release()

	merged := mergeBindings(vertexShader.Bindings, fragmentShader.Bindings)
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, int(g))
	}
	native := &wgpuPipeline{group0: merged[0]}
	for g := 0; g <= maxGroup; g++ {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(merged[uint32(g)]))
		for _, binding := range merged[uint32(g)] {
			entries = append(entries, layoutEntry(binding))
		}
		layout, layoutErr := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", p.PipelineKey(), g),
			Entries: entries,
		})
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		native.layouts = append(native.layouts, layout)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: native.layouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	attributes := make([]wgpu.VertexAttribute, 0, len(vertexShader.VertexLayout.Attributes))
	for _, attr := range vertexShader.VertexLayout.Attributes {
		attributes = append(attributes, wgpu.VertexAttribute{
			Format:         wgpuVertexFormat(attr.Format),
			Offset:         attr.Offset,
			ShaderLocation: attr.Location,
		})
	}

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	depthCompare := wgpuCompareFunction(p.DepthCompare())
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: vertexShader.VertexLayout.Stride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  attributes,
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpuTopology(p.Topology()),
			FrontFace: wgpuFrontFace(p.FrontFace()),
			CullMode:  wgpuCullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	native.render = created
	p.SetNative(native)
	b.pipelines[p.PipelineKey()] = p
	return nil
}

// frameState is the binding state accumulated while a batch is translated.
type frameState struct {
	pipeline *wgpuPipeline
	key      string
	buffers  map[command.Slot]*resource.MappedBuffer
	textures map[command.Slot]*resource.Texture
	viewport *[4]float32
	dirty    bool
}

// Submit uploads every dirty buffer range, replays the batch onto a command encoder and
// submits the result. The render pass is opened lazily at the first bind or draw so the
// clear values recorded after the transition still apply.
func (b *wgpuRendererBackendImpl) Submit(batch *command.Batch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrBackendReleased
	}
	if batch == nil || !batch.Closed() {
		return fmt.Errorf("submit: batch is not closed: %w", ErrInvalidBatch)
	}

	for _, buf := range b.buffers {
		native := buf.Native().(*wgpu.Buffer)
		buf.FlushDirty(func(offset uint64, data []byte) {
			b.queue.WriteBuffer(native, offset, data)
		})
	}

	state := &frameState{
		buffers:  make(map[command.Slot]*resource.MappedBuffer),
		textures: make(map[command.Slot]*resource.Texture),
	}
	for i, c := range batch.Commands() {
		if err := b.replay(state, c); err != nil {
			b.abortFrame()
			return fmt.Errorf("command %d (%s): %w", i, c.Kind, err)
		}
	}
	if b.frameEncoder == nil {
		return nil
	}
	if b.framePass != nil {
		b.abortFrame()
		return fmt.Errorf("submit: batch leaves the backbuffer in the render target state: %w", ErrInvalidBatch)
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameSurface()
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.presentReady = true
	return nil
}

func (b *wgpuRendererBackendImpl) replay(state *frameState, c command.Command) error {
	switch c.Kind {
	case command.KindTransition:
		if c.From == command.StatePresent && c.To == command.StateRenderTarget {
			return b.acquireFrame()
		}
		if c.From == command.StateRenderTarget && c.To == command.StatePresent {
			if err := b.ensurePass(state); err != nil {
				return err
			}
			b.framePass.End()
			b.framePass.Release()
			b.framePass = nil
			return nil
		}
		return fmt.Errorf("unexpected transition %d->%d: %w", c.From, c.To, ErrInvalidBatch)
	case command.KindClearColor:
		if b.framePass != nil {
			return fmt.Errorf("clear after the first draw: %w", ErrInvalidBatch)
		}
		b.renderPassDescriptor.ColorAttachments[0].LoadOp = wgpu.LoadOpClear
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = wgpu.Color{
			R: float64(c.Color[0]), G: float64(c.Color[1]), B: float64(c.Color[2]), A: float64(c.Color[3]),
		}
		return nil
	case command.KindClearDepth:
		if b.framePass != nil {
			return fmt.Errorf("clear after the first draw: %w", ErrInvalidBatch)
		}
		b.renderPassDescriptor.DepthStencilAttachment.DepthLoadOp = wgpu.LoadOpClear
		b.renderPassDescriptor.DepthStencilAttachment.DepthClearValue = c.Depth
		return nil
	case command.KindSetViewport:
		rect := c.Rect
		state.viewport = &rect
		if b.framePass != nil {
			b.applyViewport(rect)
		}
		return nil
	case command.KindMarker:
		if b.framePass != nil {
			b.framePass.InsertDebugMarker(c.Label)
		}
		return nil
	}

	if err := b.ensurePass(state); err != nil {
		return err
	}
	switch c.Kind {
	case command.KindSetPipeline:
		p, ok := b.pipelines[c.Label]
		if !ok {
			return fmt.Errorf("render pipeline %q not found in cache", c.Label)
		}
		state.pipeline = p.Native().(*wgpuPipeline)
		state.key = c.Label
		state.dirty = true
		b.framePass.SetPipeline(state.pipeline.render)
	case command.KindBindConstants:
		state.buffers[c.Slot] = c.Buffer
		state.dirty = true
	case command.KindBindTexture:
		state.textures[c.Slot] = c.Texture
		state.dirty = true
	case command.KindBindVertexBuffer:
		b.framePass.SetVertexBuffer(0, c.Buffer.Native().(*wgpu.Buffer), 0, wgpu.WholeSize)
	case command.KindBindIndexBuffer:
		b.framePass.SetIndexBuffer(c.Buffer.Native().(*wgpu.Buffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	case command.KindDraw, command.KindDrawIndexed:
		if state.pipeline == nil {
			return fmt.Errorf("draw without a pipeline: %w", ErrInvalidBatch)
		}
		if err := b.bindGroup0(state); err != nil {
			return err
		}
		if c.Kind == command.KindDraw {
			b.framePass.Draw(c.Count, 1, 0, 0)
		} else {
			b.framePass.DrawIndexed(c.Count, 1, 0, 0, 0)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) acquireFrame() error {
	// If a previous frame's surface texture is still held, do not acquire another one.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	b.renderPassDescriptor.ColorAttachments[0].LoadOp = wgpu.LoadOpLoad
	b.renderPassDescriptor.DepthStencilAttachment.DepthLoadOp = wgpu.LoadOpLoad
	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) ensurePass(state *frameState) error {
	if b.framePass != nil {
		return nil
	}
	if b.frameEncoder == nil {
		return fmt.Errorf("recording outside the render target state: %w", ErrInvalidBatch)
	}
	b.framePass = b.frameEncoder.BeginRenderPass(b.renderPassDescriptor)
	if state.viewport != nil {
		b.applyViewport(*state.viewport)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) applyViewport(rect [4]float32) {
	b.framePass.SetViewport(rect[0], rect[1], rect[2], rect[3], 0, 1)
	b.framePass.SetScissorRect(uint32(rect[0]), uint32(rect[1]), uint32(rect[2]), uint32(rect[3]))
}

// bindGroup0 sets the group 0 bind group for the resources currently bound, creating and
// caching it on first use.
func (b *wgpuRendererBackendImpl) bindGroup0(state *frameState) error {
	if !state.dirty {
		return nil
	}
	if len(state.pipeline.group0) == 0 {
		state.dirty = false
		return nil
	}

	key := bindGroupKey{pipeline: state.key}
	entries := make([]wgpu.BindGroupEntry, 0, len(state.pipeline.group0))
	for _, binding := range state.pipeline.group0 {
		slot := command.Slot(binding.Binding)
		entry := wgpu.BindGroupEntry{Binding: binding.Binding}
		switch binding.Kind {
		case shader.BindingKindUniform, shader.BindingKindStorage:
			buf, ok := state.buffers[slot]
			if !ok {
				return fmt.Errorf("binding %d (%s) has no constants bound", binding.Binding, binding.Name)
			}
			entry.Buffer = buf.Native().(*wgpu.Buffer)
			entry.Size = wgpu.WholeSize
			if binding.Binding < uint32(len(key.ids)) {
				key.ids[binding.Binding] = buf.ID()
			}
		case shader.BindingKindTexture:
			tex, ok := state.textures[slot]
			if !ok {
				return fmt.Errorf("binding %d (%s) has no texture bound", binding.Binding, binding.Name)
			}
			entry.TextureView = tex.Native().(*wgpuTexture).view
			if binding.Binding < uint32(len(key.ids)) {
				key.ids[binding.Binding] = tex.ID()
			}
		case shader.BindingKindSampler:
			entry.Sampler = b.sampler
		default:
			return fmt.Errorf("binding %d (%s) has an unsupported type", binding.Binding, binding.Name)
		}
		entries = append(entries, entry)
	}

	group, ok := b.bindings[key]
	if !ok {
		var err error
		group, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   state.key + " Bind Group",
			Layout:  state.pipeline.layouts[0],
			Entries: entries,
		})
		if err != nil {
			return err
		}
		b.bindings[key] = group
	}
	b.framePass.SetBindGroup(0, group, nil)
	state.dirty = false
	return nil
}

func (b *wgpuRendererBackendImpl) abortFrame() {
	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	b.presentReady = false
}

// Signal records value as the completion target of everything submitted so far. The queue
// has no timeline counter; a value is complete once the device reports an empty queue after it.
func (b *wgpuRendererBackendImpl) Signal(value uint64) error {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if released {
		return ErrBackendReleased
	}
	if value > b.signaled.Load() {
		b.signaled.Store(value)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) CompletedValue() uint64 {
	select {
	case <-b.stopPolling:
		return b.completed.Load()
	default:
	}
	signaled := b.signaled.Load()
	if b.completed.Load() < signaled && b.device.Poll(false, nil) {
		b.markCompleted(signaled)
	}
	return b.completed.Load()
}

// CompletionEvent polls the device on its own goroutine until value completes, ctx is done
// or the backend is released. Only completion closes the returned channel.
func (b *wgpuRendererBackendImpl) CompletionEvent(ctx context.Context, value uint64) <-chan struct{} {
	ch := make(chan struct{})
	if b.completed.Load() >= value {
		close(ch)
		return ch
	}

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return ch
	}
	b.pollers.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.pollers.Done()
		backoff := time.NewTimer(pollBackoff)
		defer backoff.Stop()

		for b.completed.Load() < value {
			select {
			case <-ctx.Done():
				return
			case <-b.stopPolling:
				return
			default:
			}

			signaled := b.signaled.Load()
			if signaled < value {
				// not signaled yet, nothing on the queue can complete it
				backoff.Reset(pollBackoff)
				select {
				case <-ctx.Done():
					return
				case <-b.stopPolling:
					return
				case <-backoff.C:
				}
				continue
			}
			b.device.Poll(true, nil)
			b.markCompleted(signaled)
		}
		close(ch)
	}()
	return ch
}

func (b *wgpuRendererBackendImpl) markCompleted(value uint64) {
	for {
		current := b.completed.Load()
		if value <= current || b.completed.CompareAndSwap(current, value) {
			return
		}
	}
}

func (b *wgpuRendererBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.presentReady || b.frameSurface == nil {
		return ErrNothingToPresent
	}
	b.surface.Present()
	b.releaseFrameSurface()
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	close(b.stopPolling)
	b.mu.Unlock()
	b.pollers.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.abortFrame()

	for _, group := range b.bindings {
		group.Release()
	}
	b.bindings = nil
	for _, p := range b.pipelines {
		if native, ok := p.Native().(*wgpuPipeline); ok {
			for _, layout := range native.layouts {
				layout.Release()
			}
			native.render.Release()
		}
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	b.sampler.Release()
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

// mergeBindings merges the bindings of the vertex and fragment stages per group, dropping
// duplicates declared by both, sorted by binding index.
func mergeBindings(vertex, fragment []shader.Binding) map[uint32][]shader.Binding {
	seen := make(map[[2]uint32]bool)
	merged := make(map[uint32][]shader.Binding)
	for _, list := range [][]shader.Binding{vertex, fragment} {
		for _, binding := range list {
			id := [2]uint32{binding.Group, binding.Binding}
			if seen[id] {
				continue
			}
			seen[id] = true
			merged[binding.Group] = append(merged[binding.Group], binding)
		}
	}
	for g := range merged {
		sort.Slice(merged[g], func(i, j int) bool {
			return merged[g][i].Binding < merged[g][j].Binding
		})
	}
	return merged
}

func layoutEntry(binding shader.Binding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding.Binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch binding.Kind {
	case shader.BindingKindUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case shader.BindingKindStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case shader.BindingKindTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case shader.BindingKindSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	}
	return entry
}

func wgpuVertexFormat(f shader.VertexFormat) wgpu.VertexFormat {
	switch f {
	case shader.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case shader.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case shader.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	case shader.VertexFormatSint32:
		return wgpu.VertexFormatSint32
	case shader.VertexFormatUint32:
		return wgpu.VertexFormatUint32
	default:
		return wgpu.VertexFormatFloat32
	}
}

func wgpuTopology(t pipeline.Topology) wgpu.PrimitiveTopology {
	switch t {
	case pipeline.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case pipeline.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case pipeline.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func wgpuFrontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCCW {
		return wgpu.FrontFaceCCW
	}
	return wgpu.FrontFaceCW
}

func wgpuCullMode(m pipeline.CullMode) wgpu.CullMode {
	switch m {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func wgpuCompareFunction(fn pipeline.CompareFunction) wgpu.CompareFunction {
	switch fn {
	case pipeline.CompareLess:
		return wgpu.CompareFunctionLess
	case pipeline.CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLessEqual
	}
}
