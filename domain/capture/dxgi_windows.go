//go:build windows

package capture

// DXGI Desktop Duplication backend. D3D11 and DXGI interfaces are driven
// through their COM vtables with syscall.SyscallN; go-ole provides the GUID,
// IUnknown and HRESULT plumbing.

import (
	"errors"
	"fmt"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

var (
	modD3D11  = windows.NewLazySystemDLL("d3d11.dll")
	modUser32 = windows.NewLazySystemDLL("user32.dll")

	procD3D11CreateDevice = modD3D11.NewProc("D3D11CreateDevice")
	procGetSystemMetrics  = modUser32.NewProc("GetSystemMetrics")
)

const (
	smCxScreen = 0
	smCyScreen = 1

	d3dDriverTypeHardware        = 1
	d3dFeatureLevel11_0          = 0xb000
	d3dFeatureLevel10_1          = 0xa100
	d3dFeatureLevel10_0          = 0xa000
	d3dFeatureLevel9_3           = 0x9300
	d3d11SDKVersion              = 7
	d3d11CreateDeviceBGRASupport = 0x20

	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	d3d11MapRead       = 1
	dxgiFormatB8G8R8A8 = 87

	dxgiErrWaitTimeout           = 0x887A0027
	dxgiErrNotCurrentlyAvailable = 0x887A0022
	eAccessDenied                = 0x80070005

	// COM vtable indices (IUnknown occupies 0..2).
	dxgiDeviceGetAdapter       = 7
	dxgiAdapterEnumOutputs     = 7
	dxgiOutput1DuplicateOutput = 22
	dxgiDuplAcquireNextFrame   = 8
	dxgiDuplReleaseFrame       = 14
	d3d11DeviceCreateTexture2D = 5
	d3d11CtxMap                = 14
	d3d11CtxUnmap              = 15
	d3d11CtxCopySubresRegion   = 46
)

var (
	iidIDXGIDevice     = ole.NewGUID("{54EC77FA-1377-44E6-8C32-88FD5F44C84C}")
	iidIDXGIOutput1    = ole.NewGUID("{00CDDEA8-939B-4B83-A340-A685226666CC}")
	iidID3D11Texture2D = ole.NewGUID("{6F15AAF2-D208-4E89-9AB4-489535D34F9C}")
)

// d3d11Texture2DDesc matches D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// d3d11MappedSubresource matches D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// dxgiOutDuplFrameInfo matches DXGI_OUTDUPL_FRAME_INFO.
type dxgiOutDuplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

func comCall(obj uintptr, idx int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
	all := make([]uintptr, 0, 1+len(args))
	all = append(all, obj)
	all = append(all, args...)
	hr, _, _ := syscall.SyscallN(fn, all...)
	return hr
}

func failed(hr uintptr) bool { return int32(hr) < 0 }

func comUnknown(obj uintptr) *ole.IUnknown { return (*ole.IUnknown)(unsafe.Pointer(obj)) }

func comRelease(obj uintptr) {
	if obj != 0 {
		comUnknown(obj).Release()
	}
}

func queryInterface(obj uintptr, iid *ole.GUID) (uintptr, error) {
	disp, err := comUnknown(obj).QueryInterface(iid)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(disp)), nil
}

func hresultOf(err error) uintptr {
	var oe *ole.OleError
	if errors.As(err, &oe) {
		return oe.Code()
	}
	return 0
}

type dxgiPlatform struct{}

// NewPlatform returns the DXGI Desktop Duplication platform.
func NewPlatform() Platform { return dxgiPlatform{} }

func (dxgiPlatform) ScreenSize() (int, int, error) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if int32(w) <= 0 || int32(h) <= 0 {
		return 0, 0, fmt.Errorf("capture: invalid screen size w=%d h=%d", int32(w), int32(h))
	}
	return int(int32(w)), int(int32(h)), nil
}

func (dxgiPlatform) CreateDevice() (GPUDevice, error) {
	if err := procD3D11CreateDevice.Find(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceCreation, err)
	}
	levels := [...]uint32{d3dFeatureLevel11_0, d3dFeatureLevel10_1, d3dFeatureLevel10_0, d3dFeatureLevel9_3}
	var device, context uintptr
	var actual uint32
	hr, _, _ := procD3D11CreateDevice.Call(
		0, // default adapter
		d3dDriverTypeHardware,
		0,
		d3d11CreateDeviceBGRASupport,
		uintptr(unsafe.Pointer(&levels[0])),
		uintptr(len(levels)),
		d3d11SDKVersion,
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&actual)),
		uintptr(unsafe.Pointer(&context)),
	)
	if failed(hr) || device == 0 || context == 0 {
		comRelease(context)
		comRelease(device)
		return nil, fmt.Errorf("%w: D3D11CreateDevice: %w", ErrDeviceCreation, ole.NewError(hr))
	}
	return &dxgiDevice{device: device, context: context}, nil
}

type dxgiDevice struct {
	device  uintptr // ID3D11Device
	context uintptr // ID3D11DeviceContext
}

func (d *dxgiDevice) CreateStaging(width, height int) (StagingSurface, error) {
	desc := d3d11Texture2DDesc{
		Width:          uint32(width),
		Height:         uint32(height),
		MipLevels:      1,
		ArraySize:      1,
		Format:         dxgiFormatB8G8R8A8,
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	var tex uintptr
	hr := comCall(d.device, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)),
		0,
		uintptr(unsafe.Pointer(&tex)),
	)
	if failed(hr) {
		return nil, fmt.Errorf("%w: CreateTexture2D: %w", ErrSurfaceAllocation, ole.NewError(hr))
	}
	return &dxgiStaging{context: d.context, texture: tex, width: width, height: height}, nil
}

func (d *dxgiDevice) DuplicateOutput(output int) (Duplication, error) {
	dxgiDev, err := queryInterface(d.device, iidIDXGIDevice)
	if err != nil {
		return nil, fmt.Errorf("%w: IDXGIDevice: %w", ErrDuplicationUnavailable, err)
	}
	defer comRelease(dxgiDev)

	var adapter uintptr
	if hr := comCall(dxgiDev, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); failed(hr) {
		return nil, fmt.Errorf("%w: GetAdapter: %w", ErrDuplicationUnavailable, ole.NewError(hr))
	}
	defer comRelease(adapter)

	var out uintptr
	if hr := comCall(adapter, dxgiAdapterEnumOutputs, uintptr(output), uintptr(unsafe.Pointer(&out))); failed(hr) {
		return nil, fmt.Errorf("%w: EnumOutputs(%d): %w", ErrDuplicationUnavailable, output, ole.NewError(hr))
	}
	out1, err := queryInterface(out, iidIDXGIOutput1)
	comRelease(out)
	if err != nil {
		return nil, fmt.Errorf("%w: IDXGIOutput1: %w", ErrDuplicationUnavailable, err)
	}
	defer comRelease(out1)

	var dupl uintptr
	if hr := comCall(out1, dxgiOutput1DuplicateOutput, d.device, uintptr(unsafe.Pointer(&dupl))); failed(hr) {
		reason := "duplication not supported"
		switch uint32(hr) {
		case dxgiErrNotCurrentlyAvailable:
			reason = "another consumer holds the duplication"
		case eAccessDenied:
			reason = "access denied"
		}
		return nil, fmt.Errorf("%w: DuplicateOutput: %s: %w", ErrDuplicationUnavailable, reason, ole.NewError(hr))
	}
	return &dxgiDuplication{dupl: dupl}, nil
}

func (d *dxgiDevice) Close() error {
	comRelease(d.context)
	comRelease(d.device)
	d.context, d.device = 0, 0
	return nil
}

type dxgiStaging struct {
	context uintptr // borrowed from dxgiDevice
	texture uintptr // ID3D11Texture2D, staging usage
	width   int
	height  int
}

// d3d11Box is D3D11_BOX.
type d3d11Box struct {
	Left, Top, Front, Right, Bottom, Back uint32
}

func (s *dxgiStaging) CopyFrom(frame FrameResource) error {
	f, ok := frame.(*dxgiFrame)
	if !ok || f.texture == 0 {
		return fmt.Errorf("capture: unexpected frame resource %T", frame)
	}
	// Staging may hold only the top-left region of the desktop, and
	// CopyResource drops copies between textures of different sizes.
	// CopySubresourceRegion is void; failures surface on Map.
	box := d3d11Box{Right: uint32(s.width), Bottom: uint32(s.height), Back: 1}
	comCall(s.context, d3d11CtxCopySubresRegion,
		s.texture, 0, 0, 0, 0,
		f.texture, 0, uintptr(unsafe.Pointer(&box)))
	return nil
}

func (s *dxgiStaging) Map() (Mapping, error) {
	var mapped d3d11MappedSubresource
	hr := comCall(s.context, d3d11CtxMap, s.texture, 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&mapped)))
	if failed(hr) {
		return Mapping{}, fmt.Errorf("%w: %w", ErrMap, ole.NewError(hr))
	}
	pitch := int(mapped.RowPitch)
	return Mapping{
		Data:     unsafe.Pointer(mapped.PData),
		RowPitch: pitch,
		Len:      pitch * s.height,
	}, nil
}

func (s *dxgiStaging) Unmap() {
	comCall(s.context, d3d11CtxUnmap, s.texture, 0)
}

func (s *dxgiStaging) Close() error {
	comRelease(s.texture)
	s.texture = 0
	return nil
}

type dxgiDuplication struct {
	dupl uintptr // IDXGIOutputDuplication
}

func (d *dxgiDuplication) AcquireNextFrame(timeout time.Duration) (FrameResource, error) {
	var info dxgiOutDuplFrameInfo
	var resource uintptr
	hr := comCall(d.dupl, dxgiDuplAcquireNextFrame,
		uintptr(uint32(timeout/time.Millisecond)),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&resource)),
	)
	if uint32(hr) == dxgiErrWaitTimeout {
		return nil, ErrAcquisitionTimeout
	}
	if failed(hr) {
		return nil, fmt.Errorf("%w: AcquireNextFrame: %w", ErrAcquisitionFatal, ole.NewError(hr))
	}
	// Pointer-only updates carry no new desktop image.
	if info.AccumulatedFrames == 0 {
		comRelease(resource)
		if err := d.ReleaseFrame(); err != nil {
			return nil, err
		}
		return nil, ErrAcquisitionTimeout
	}
	tex, err := queryInterface(resource, iidID3D11Texture2D)
	comRelease(resource)
	if err != nil {
		_ = d.ReleaseFrame()
		return nil, fmt.Errorf("%w: ID3D11Texture2D (hr=0x%08X): %w", ErrAcquisitionFatal, uint32(hresultOf(err)), err)
	}
	return &dxgiFrame{texture: tex}, nil
}

func (d *dxgiDuplication) ReleaseFrame() error {
	if hr := comCall(d.dupl, dxgiDuplReleaseFrame); failed(hr) {
		return fmt.Errorf("%w: ReleaseFrame: %w", ErrAcquisitionFatal, ole.NewError(hr))
	}
	return nil
}

func (d *dxgiDuplication) Close() error {
	comRelease(d.dupl)
	d.dupl = 0
	return nil
}

type dxgiFrame struct {
	texture uintptr // ID3D11Texture2D owned by the duplication
}

func (f *dxgiFrame) Close() error {
	comRelease(f.texture)
	f.texture = 0
	return nil
}

var (
	_ Platform       = dxgiPlatform{}
	_ GPUDevice      = (*dxgiDevice)(nil)
	_ StagingSurface = (*dxgiStaging)(nil)
	_ Duplication    = (*dxgiDuplication)(nil)
)
