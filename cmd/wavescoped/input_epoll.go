//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// readInputEventsMulti serves every touch device from one epoll loop. Each
// wakeup drains up to readBatch events from the ready device.
func readInputEventsMulti(files []*os.File, events chan<- deviceEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- errors.New("no input devices provided")
		return
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	byFD := make(map[int32]*os.File, len(files))
	for _, f := range files {
		fd := int(f.Fd())
		byFD[int32(fd)] = f

		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			readErr <- fmt.Errorf("epoll_ctl_add %s (fd=%d): %w", f.Name(), fd, err)
			return
		}
	}

	ready := make([]unix.EpollEvent, len(files))
	buf := make([]byte, readBatch*inputEventSize)

	for {
		n, err := unix.EpollWait(epfd, ready, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		for _, r := range ready[:n] {
			f := byFD[r.Fd]
			if r.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				// A vanished touchscreen ends touch input.
				readErr <- fmt.Errorf("device error/hangup: %s", f.Name())
				return
			}

			nr, err := unix.Read(int(r.Fd), buf)
			if err != nil {
				if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
					continue
				}
				readErr <- fmt.Errorf("read from %s: %w", f.Name(), err)
				return
			}
			if err := decodeInputEvents(buf[:nr], f.Name(), events); err != nil {
				readErr <- err
				return
			}
		}
	}
}
