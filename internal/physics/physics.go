package physics

import "math"

// Vec2 二维向量
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 向量加法
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale 标量乘法
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Len 向量长度
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize 归一化，零向量原样返回
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Rect 轴对齐矩形，X/Y 为左上角
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Intersects 两个矩形是否相交
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Contains 点是否在矩形内
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Circle 圆形
type Circle struct {
	Center Vec2    `json:"center"`
	Radius float64 `json:"radius"`
}

// IntersectsRect 圆与矩形是否相交
func (c Circle) IntersectsRect(r Rect) bool {
	// 取矩形上离圆心最近的点
	nearest := Vec2{
		X: clamp(c.Center.X, r.X, r.X+r.W),
		Y: clamp(c.Center.Y, r.Y, r.Y+r.H),
	}
	dx := c.Center.X - nearest.X
	dy := c.Center.Y - nearest.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
