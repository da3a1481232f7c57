// Copyright 2026 The rvkernel Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linux

import (
	"testing"

	"rvkernel.dev/rvkernel/pkg/marshal"
)

func TestMicrosToTimeVal(t *testing.T) {
	if got, want := MicrosToTimeVal(3_000_042), (TimeVal{Sec: 3, Usec: 42}); got != want {
		t.Errorf("MicrosToTimeVal = %+v, want %+v", got, want)
	}
}

func TestTimeValLayout(t *testing.T) {
	tv := TimeVal{Sec: 0x0102030405060708, Usec: 9}
	buf := marshal.Marshal(&tv)
	if len(buf) != SizeOfTimeVal {
		t.Fatalf("marshalled %d bytes, want %d", len(buf), SizeOfTimeVal)
	}
	if buf[0] != 0x08 || buf[7] != 0x01 || buf[8] != 9 {
		t.Errorf("unexpected little endian layout % x", buf)
	}
}

func TestTaskInfoLayout(t *testing.T) {
	var ti TaskInfo
	ti.Status = TaskRunning
	ti.SyscallTimes[SYS_GETTIMEOFDAY] = 3
	ti.SyscallTimes[SYS_TASK_INFO] = 1
	ti.Time = 500

	buf := marshal.Marshal(&ti)
	if len(buf) != 2016 {
		t.Fatalf("marshalled %d bytes, want 2016", len(buf))
	}
	if buf[0] != byte(TaskRunning) {
		t.Errorf("status byte = %d, want %d", buf[0], TaskRunning)
	}
	if got := buf[4+4*SYS_GETTIMEOFDAY]; got != 3 {
		t.Errorf("get_time counter byte = %d, want 3", got)
	}
	if got := buf[2008]; got != 500&0xff {
		t.Errorf("time low byte = %d, want %d", got, 500&0xff)
	}

	var back TaskInfo
	back.UnmarshalBytes(buf)
	if back.Status != ti.Status || back.SyscallTimes != ti.SyscallTimes || back.Time != ti.Time {
		t.Errorf("UnmarshalBytes = {%v ... %d}, want {%v ... %d}", back.Status, back.Time, ti.Status, ti.Time)
	}
}
