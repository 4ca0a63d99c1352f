package physics

import "testing"

func TestPresetsAndClamping(t *testing.T) {
	tests := []struct {
		name string
		got  Response
		want Response
	}{
		{"default", DefaultResponse(), Response{0.4, 0.4, 0.4, 0.01}},
		{"bouncy", Bouncy(), Response{0.8, 0.2, 0.4, 0.01}},
		{"character", Character(), Response{0, 0.8, 0.6, 0.01}},
		{"slippery", Slippery(), Response{0.3, 0.1, 0.4, 0.01}},
		{"elastic", Elastic(), Response{1, 0.4, 0.4, 0.01}},
		{"clamped", NewResponse(2, -1, 5, -3), Response{1, 0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}

func TestResolveImpulseHeadOn(t *testing.T) {
	c := Contact{Normal: Vec2{1, 0}, Penetration: 0.1}
	dvA, dvB := ResolveImpulse(c, Vec2{1, 0}, Vec2{-1, 0}, 1, 1, Elastic())
	if !approxVec(dvA, Vec2{-2, 0}) || !approxVec(dvB, Vec2{2, 0}) {
		t.Errorf("elastic swap: dvA=%v dvB=%v", dvA, dvB)
	}

	// a static B leaves all the change on A
	dvA, dvB = ResolveImpulse(c, Vec2{1, 0}, Vec2{}, 1, 0, NewResponse(0.5, 0, 0, 0))
	if !approxVec(dvA, Vec2{-1.5, 0}) || dvB != (Vec2{}) {
		t.Errorf("static wall: dvA=%v dvB=%v", dvA, dvB)
	}
}

func TestResolveImpulseSkips(t *testing.T) {
	c := Contact{Normal: Vec2{1, 0}, Penetration: 0.1}
	if dvA, dvB := ResolveImpulse(c, Vec2{-1, 0}, Vec2{1, 0}, 1, 1, Elastic()); dvA != (Vec2{}) || dvB != (Vec2{}) {
		t.Error("separating bodies should not be resolved")
	}
	if dvA, dvB := ResolveImpulse(c, Vec2{1, 0}, Vec2{}, 0, 0, Elastic()); dvA != (Vec2{}) || dvB != (Vec2{}) {
		t.Error("two static bodies should not be resolved")
	}
}

func TestResolveImpulseFrictionClamp(t *testing.T) {
	// B slides along the floor A while pressing into it
	c := Contact{Normal: Vec2{0, 1}, Penetration: 0.1}
	r := NewResponse(0, 0.5, 0, 0)
	_, dvB := ResolveImpulse(c, Vec2{}, Vec2{5, -1}, 0, 1, r)
	got := Vec2{5, -1}.Add(dvB)
	if !approxVec(got, Vec2{4.5, 0}) {
		t.Errorf("velocity after contact = %v, want (4.5, 0)", got)
	}
}

func TestPositionCorrection(t *testing.T) {
	c := Contact{Normal: Vec2{1, 0}, Penetration: 1}
	corrA, corrB := PositionCorrection(c, 1, 1, DefaultResponse())
	if !approxVec(corrA, Vec2{-0.198, 0}) || !approxVec(corrB, Vec2{0.198, 0}) {
		t.Errorf("corrA=%v corrB=%v", corrA, corrB)
	}
	corrA, corrB = PositionCorrection(c, 0, 1, DefaultResponse())
	if corrA != (Vec2{}) || !approxVec(corrB, Vec2{0.396, 0}) {
		t.Errorf("static A: corrA=%v corrB=%v", corrA, corrB)
	}
	c.Penetration = 0.005
	if corrA, corrB = PositionCorrection(c, 1, 1, DefaultResponse()); corrA != (Vec2{}) || corrB != (Vec2{}) {
		t.Error("penetration within slop should not be corrected")
	}
}
